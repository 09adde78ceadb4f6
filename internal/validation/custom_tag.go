package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxTitleLength       = 120
	MaxDescriptionLength = 500
)

var customTags = map[string]validator.Func{
	"title":       ValidateTitle,
	"description": ValidateDescription,
}

var aliases = map[string]string{
	"sessionid": "uuid4",
	"role":      "oneof=broadcaster viewer",
}

func init() {
	for tag, fn := range customTags {
		MustRegisterGin(tag, fn)
	}
	for tag, alias := range aliases {
		MustRegisterGinAlias(tag, alias)
	}
	MustUseJSONNamesGin()
}

// ValidateTitle accepts 1 to MaxTitleLength characters after trimming.
func ValidateTitle(fl validator.FieldLevel) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
	return n >= 1 && n <= MaxTitleLength
}

// ValidateDescription accepts up to MaxDescriptionLength characters after trimming.
func ValidateDescription(fl validator.FieldLevel) bool {
	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) <= MaxDescriptionLength
}
