package validation

import (
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagName matches gin's binding tag so DTOs validate the same way whether
// they arrive through a handler or are passed to a service directly.
const TagName = "binding"

var (
	ginOnce sync.Once
	ginErr  error
)

// New returns a validator configured with the custom tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(TagName)
	// Register cannot fail for the fixed set of tags below.
	_ = Register(v)
	return v
}

// Register adds the custom tags to v.
func Register(v *validator.Validate) error {
	tags := map[string]validator.Func{
		"notdisposable": notDisposable,
		"trimmedmin":    trimmedMin,
		"profession":    oneOfSet(Professions),
		"investortype":  oneOfSet(InvestorTypes),
	}

	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	return nil
}

// RegisterWithGin installs the custom tags on gin's default binding engine once.
func RegisterWithGin() error {
	ginOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			ginErr = Register(v)
		}
	})

	return ginErr
}

func notDisposable(fl validator.FieldLevel) bool {
	return !IsDisposableEmail(fl.Field().String())
}

func oneOfSet(allowed []string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, value := range allowed {
		set[value] = struct{}{}
	}

	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

func trimmedMin(fl validator.FieldLevel) bool {
	minimum, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= minimum
}

// NormalizeEmail trims and lowercases an address; emails are unique in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the lowercased part after the last '@', or "".
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func IsDisposableEmail(email string) bool {
	_, blocked := disposableDomains[EmailDomain(email)]
	return blocked
}
