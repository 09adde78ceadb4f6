package validation

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/imtaco/livecast/internal/errors"
)

const errNotValidator errors.Code = "validator engine is not of type *validator.Validate"

// New returns a standalone validator with the custom tags and json field names,
// for payloads that do not go through gin binding.
func New() *validator.Validate {
	v := validator.New()
	for tag, fn := range customTags {
		if err := Register(v, tag, fn); err != nil {
			panic(err)
		}
	}
	for tag, alias := range aliases {
		RegisterAlias(v, tag, alias)
	}
	UseJSONNames(v)
	return v
}

func MustRegisterGin(tag string, fn validator.Func) {
	if err := RegisterGin(tag, fn); err != nil {
		panic(err)
	}
}

func MustRegisterGinAlias(tag string, alias string) {
	if err := RegisterGinAlias(tag, alias); err != nil {
		panic(err)
	}
}

func MustUseJSONNamesGin() {
	v, err := ginValidator()
	if err != nil {
		panic(err)
	}
	UseJSONNames(v)
}

func Register(v *validator.Validate, tag string, fn validator.Func) error {
	return v.RegisterValidation(tag, fn)
}

func RegisterAlias(v *validator.Validate, tag string, alias string) {
	v.RegisterAlias(tag, alias)
}

// UseJSONNames reports fields by their json name, falling back to form and the Go name.
func UseJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

func RegisterGin(tag string, fn validator.Func) error {
	v, err := ginValidator()
	if err != nil {
		return err
	}
	return Register(v, tag, fn)
}

func RegisterGinAlias(tag string, alias string) error {
	v, err := ginValidator()
	if err != nil {
		return err
	}
	RegisterAlias(v, tag, alias)
	return nil
}

func ginValidator() (*validator.Validate, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v, nil
	}
	return nil, errNotValidator
}
