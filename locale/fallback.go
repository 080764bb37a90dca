package locale

import "golang.org/x/text/language"

// fallbacks returns the tags that can be substituted for a tag, ordered by
// increasing generality, starting with the tag itself.
func fallbacks(tag language.Tag) []language.Tag {
	var result []language.Tag
	lang, script, region := tag.Raw()
	// The language package returns ZZ for an unspecified region, similar quirk for script.
	if region.String() != "ZZ" {
		t, _ := language.Compose(lang, script, region)
		result = append(result, t)
	}
	if script.String() != "Zzzz" {
		t, _ := language.Compose(lang, script)
		result = append(result, t)
	}
	t, _ := language.Compose(lang)
	return append(result, t)
}
