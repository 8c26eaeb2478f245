package cod

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"codpage_back_end/internal/apperrors"
)

// OrderForm : données saisies par le client sur la page.
type OrderForm struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Quantity int    `json:"quantity"`

	// Contexte de la page, non validé
	PageID       string  `json:"pageId,omitempty"`
	ProductTitle string  `json:"productTitle,omitempty"`
	UnitPrice    float64 `json:"unitPrice,omitempty"`
}

// values : une quantité à 0 est traitée comme absente.
func (f OrderForm) values() map[string]string {
	qty := ""
	if f.Quantity != 0 {
		qty = strconv.Itoa(f.Quantity)
	}
	return map[string]string{
		"name":     f.Name,
		"phone":    f.Phone,
		"email":    f.Email,
		"address":  f.Address,
		"city":     f.City,
		"state":    f.State,
		"pincode":  f.Pincode,
		"quantity": qty,
	}
}

// Validate vérifie tous les champs et renvoie une *apperrors.ValidationError
// regroupant chaque violation, ou nil.
func Validate(f OrderForm) error {
	verr := apperrors.NewValidationError()
	values := f.values()

	for _, s := range formSpecs {
		name := s.field.Name
		v := strings.TrimSpace(values[name])
		fail := func(format string, args ...any) {
			verr.Add(name, name+": "+fmt.Sprintf(format, args...))
		}

		if v == "" {
			if s.rule.Required {
				fail("%s est requis", s.field.Label)
			}
			continue
		}

		n := utf8.RuneCountInString(v)
		if s.rule.MinLength > 0 && n < s.rule.MinLength {
			fail("au moins %d caractères", s.rule.MinLength)
		}
		if s.rule.MaxLength > 0 && n > s.rule.MaxLength {
			fail("au plus %d caractères", s.rule.MaxLength)
		}
		if re, ok := patterns[name]; ok && !re.MatchString(v) {
			fail("%s", s.patternMessage)
		}
		if s.rule.Min != nil || s.rule.Max != nil {
			num, err := strconv.ParseFloat(v, 64)
			switch {
			case err != nil:
				fail("doit être un nombre")
			case s.rule.Min != nil && num < *s.rule.Min:
				fail("minimum %g", *s.rule.Min)
			case s.rule.Max != nil && num > *s.rule.Max:
				fail("maximum %g", *s.rule.Max)
			}
		}
	}
	return verr.OrNil()
}
