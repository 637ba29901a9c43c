package http

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"live-quiz-service/internal/domain"
)

// payloadValidator checks inbound payload structs and renders failures in English.
type payloadValidator struct {
	validate *govalidator.Validate
	trans    ut.Translator
}

func newPayloadValidator() *payloadValidator {
	v := govalidator.New()
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	return &payloadValidator{validate: v, trans: trans}
}

// Check returns a validation error describing every failed field, or nil.
func (p *payloadValidator) Check(dst any) error {
	err := p.validate.Struct(dst)
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.Invalid("invalid payload")
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fe.Translate(p.trans))
	}
	sort.Strings(msgs)
	return domain.Invalid("%s", strings.Join(msgs, "; "))
}
