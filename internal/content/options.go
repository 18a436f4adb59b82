package content

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is returned when generation options or the uploaded image
// are incomplete or invalid. It is never retried.
var ErrValidation = errors.New("validation error")

// Tone is the brand voice used for generated copy.
type Tone string

const (
	ToneProfessional  Tone = "professional"
	ToneCasual        Tone = "casual"
	ToneFriendly      Tone = "friendly"
	ToneHumorous      Tone = "humorous"
	ToneFormal        Tone = "formal"
	ToneEnthusiastic  Tone = "enthusiastic"
	ToneLuxury        Tone = "luxury"
	ToneMinimalist    Tone = "minimalist"
	ToneInspirational Tone = "inspirational"
	ToneEducational   Tone = "educational"
)

// Tones lists every supported tone in display order.
var Tones = []Tone{
	ToneProfessional, ToneCasual, ToneFriendly, ToneHumorous, ToneFormal,
	ToneEnthusiastic, ToneLuxury, ToneMinimalist, ToneInspirational, ToneEducational,
}

const DefaultTone = ToneProfessional

// ParseTone parses a tone name case-insensitively.
func ParseTone(s string) (Tone, bool) {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	return t, slices.Contains(Tones, t)
}

// Mode selects the generator that runs after analysis.
type Mode string

const (
	ModeNone        Mode = ""
	ModeSocial      Mode = "social"
	ModeMarketplace Mode = "marketplace"
)

// ParseCurrency upper-cases an ISO 4217 code, e.g. "eur" becomes "EUR".
func ParseCurrency(s string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	return code, validate.Var(code, "required,iso4217") == nil
}

// ParseMode parses a mode name case-insensitively. The empty string is the
// analysis-only mode.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeNone, ModeSocial, ModeMarketplace:
		return m, true
	}
	return m, false
}

const DefaultCurrency = "USD"

// GenerationOptions configures one generation request.
type GenerationOptions struct {
	Tone                  Tone        `json:"tone,omitempty" validate:"omitempty,tone"`
	Language              string      `json:"language" validate:"required,max=64"`
	Platforms             []Platform  `json:"platforms,omitempty" validate:"dive,social_platform"`
	Mode                  Mode        `json:"mode,omitempty" validate:"omitempty,oneof=social marketplace"`
	Category              string      `json:"category,omitempty" validate:"max=128"`
	Platform              Marketplace `json:"platform,omitempty" validate:"omitempty,marketplace"`
	AdditionalDescription string      `json:"additionalDescription,omitempty" validate:"max=2000"`
	Industry              string      `json:"industry,omitempty" validate:"max=128"`
	Currency              string      `json:"currency,omitempty" validate:"omitempty,iso4217"`
	PriceRange            string      `json:"priceRange,omitempty" validate:"max=64"`
	UserID                string      `json:"userId,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("tone", func(fl validator.FieldLevel) bool {
		return slices.Contains(Tones, Tone(fl.Field().String()))
	})
	_ = v.RegisterValidation("social_platform", func(fl validator.FieldLevel) bool {
		return Platform(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("marketplace", func(fl validator.FieldLevel) bool {
		return Marketplace(fl.Field().String()).Valid()
	})
	return v
}

// Normalized returns a copy with trimmed fields, lower-cased identifiers,
// deduplicated platforms, a canonical language name and defaults applied.
func (o GenerationOptions) Normalized() GenerationOptions {
	n := o
	n.Language = NormalizeLanguage(o.Language)
	n.Tone = Tone(strings.ToLower(strings.TrimSpace(string(o.Tone))))
	if n.Tone == "" {
		n.Tone = DefaultTone
	}
	n.Mode = Mode(strings.ToLower(strings.TrimSpace(string(o.Mode))))
	n.Category = strings.TrimSpace(o.Category)
	n.Platform = Marketplace(strings.ToLower(strings.TrimSpace(string(o.Platform))))
	n.AdditionalDescription = strings.TrimSpace(o.AdditionalDescription)
	n.Industry = strings.TrimSpace(o.Industry)
	n.Currency = strings.ToUpper(strings.TrimSpace(o.Currency))
	if n.Currency == "" {
		n.Currency = DefaultCurrency
	}
	n.PriceRange = strings.TrimSpace(o.PriceRange)

	n.Platforms = nil
	for _, p := range o.Platforms {
		p = Platform(strings.ToLower(strings.TrimSpace(string(p))))
		if p != "" && !slices.Contains(n.Platforms, p) {
			n.Platforms = append(n.Platforms, p)
		}
	}
	return n
}

// Validate checks the options before any upstream call is made. All
// failures match ErrValidation.
func (o GenerationOptions) Validate() error {
	if strings.TrimSpace(o.Language) == "" {
		return fmt.Errorf("%w: language is required", ErrValidation)
	}

	if err := validate.Struct(o); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			problems := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, ", "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	switch o.Mode {
	case ModeSocial:
		if len(o.Platforms) == 0 {
			return fmt.Errorf("%w: at least one platform is required in social mode", ErrValidation)
		}
	case ModeMarketplace:
		if strings.TrimSpace(o.Category) == "" {
			return fmt.Errorf("%w: category is required in marketplace mode", ErrValidation)
		}
		if o.Platform == "" {
			return fmt.Errorf("%w: marketplace platform is required in marketplace mode", ErrValidation)
		}
	}
	return nil
}
