package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name         string
		tag          language.Tag
		expectedTags []language.Tag
	}{
		{
			name:         "generic locale has no extra fallbacks",
			tag:          language.MustParse("en"),
			expectedTags: []language.Tag{language.English},
		},
		{
			name:         "regional locale falls back to its language",
			tag:          language.MustParse("en_US"),
			expectedTags: []language.Tag{language.AmericanEnglish, language.English},
		},
		{
			name:         "script falls back to its language",
			tag:          language.MustParse("ar_Arab"),
			expectedTags: []language.Tag{language.MustParse("ar_Arab"), language.Arabic},
		},
		{
			name: "script and region fall back in order",
			tag:  language.MustParse("ar_Arab_EG"),
			expectedTags: []language.Tag{
				language.MustParse("ar_Arab_EG"),
				language.MustParse("ar_Arab"),
				language.Arabic,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expectedTags, fallbacks(test.tag))
		})
	}
}
