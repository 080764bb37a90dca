/*
Package fluid renders Liquid-style views wrapped in layouts, for one or many
tenants of a content site.

Usage example

Typically a site keeps its views in one directory, with layouts and partials
in subdirectories:

  views/
  views/layouts/main.liquid
  views/partials/nav.liquid
  views/pages/home.liquid
  ...

A view picks its layout by assigning the layout variable, and captures the
sections the layout renders:

  {% assign layout = 'layouts/main' %}
  {% capture title %}Home{% endcapture %}
  Welcome {{ user.name }}

The layout marks where the view's output goes, and where its sections go:

  <title>{% rendersection title %}</title>
  <main>{% renderbody %}</main>
  {% rendersection scripts, required: false %}

On startup, load the configuration and create an Engine:

  v, _ := config.New("fluid.yaml")
  cfg, _ := config.Load(v)
  engine, _ := fluid.New(cfg, logger)

To render a page:

  err := engine.Execute(w, fluid.Request{
      Tenant:    "acme",
      Path:      "pages/home",
      Data:      data.Map{"user": data.New(user)},
      Languages: []string{r.Header.Get("Accept-Language")},
  })

Views are compiled on first use and shared by all requests, per process or
per tenant according to the cache.scope setting.  With cache.watch on, edits
below the template directories cause the next request to recompile.

Tenants

When templates.tenants is set, the views below <tenants>/<tenant> override
the site's views of the same path, for that tenant only.  Overrides apply
only with the tenant cache scope.

Filters

Besides the built-in filters (upcase, truncate, json, t, ...), a site may
define filters in JavaScript files below scripts.dir.  See package scripting.

Localization

The t filter translates its input with the catalog of the best matching
locale below locale.dir, falling back to locale.default.  See package locale.
*/
package fluid
