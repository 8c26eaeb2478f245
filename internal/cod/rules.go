package cod

import (
	"regexp"

	"codpage_back_end/internal/models"
)

type fieldSpec struct {
	field models.FormField
	rule  models.FieldRule
	// message affiché quand le motif ne correspond pas
	patternMessage string
}

func floatPtr(v float64) *float64 { return &v }

// Table des règles du formulaire COD. L'ordre est celui de l'affichage et des messages d'erreur.
var formSpecs = []fieldSpec{
	{
		field: models.FormField{Name: "name", Label: "Nom complet", Type: "text", Placeholder: "Votre nom"},
		rule:  models.FieldRule{Required: true, MinLength: 2},
	},
	{
		field:          models.FormField{Name: "phone", Label: "Téléphone", Type: "tel", Placeholder: "10 chiffres"},
		rule:           models.FieldRule{Required: true, Pattern: `^[0-9]{10}$`},
		patternMessage: "doit contenir exactement 10 chiffres",
	},
	{
		field:          models.FormField{Name: "email", Label: "E-mail", Type: "email", Placeholder: "vous@exemple.com"},
		rule:           models.FieldRule{Pattern: `^[^\s@]+@[^\s@]+\.[^\s@]+$`},
		patternMessage: "adresse e-mail invalide",
	},
	{
		field: models.FormField{Name: "address", Label: "Adresse", Type: "textarea", Placeholder: "Rue, bâtiment, repère"},
		rule:  models.FieldRule{Required: true, MinLength: 10},
	},
	{
		field: models.FormField{Name: "city", Label: "Ville", Type: "text"},
		rule:  models.FieldRule{Required: true, MinLength: 2},
	},
	{
		field: models.FormField{Name: "state", Label: "État", Type: "text"},
		rule:  models.FieldRule{Required: true, MinLength: 2},
	},
	{
		field:          models.FormField{Name: "pincode", Label: "Code PIN", Type: "text", Placeholder: "6 chiffres"},
		rule:           models.FieldRule{Required: true, Pattern: `^[0-9]{6}$`},
		patternMessage: "doit contenir exactement 6 chiffres",
	},
	{
		field: models.FormField{Name: "quantity", Label: "Quantité", Type: "number"},
		rule:  models.FieldRule{Required: true, Min: floatPtr(1), Max: floatPtr(10)},
	},
}

var patterns = compilePatterns()

func compilePatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp)
	for _, s := range formSpecs {
		if s.rule.Pattern != "" {
			out[s.field.Name] = regexp.MustCompile(s.rule.Pattern)
		}
	}
	return out
}

// Fields renvoie la liste ordonnée des champs du formulaire.
func Fields() []models.FormField {
	out := make([]models.FormField, len(formSpecs))
	for i, s := range formSpecs {
		out[i] = s.field
	}
	return out
}

// RuleMap renvoie les règles de validation indexées par nom de champ.
func RuleMap() map[string]models.FieldRule {
	out := make(map[string]models.FieldRule, len(formSpecs))
	for _, s := range formSpecs {
		r := s.rule
		if r.Min != nil {
			r.Min = floatPtr(*r.Min)
		}
		if r.Max != nil {
			r.Max = floatPtr(*r.Max)
		}
		out[s.field.Name] = r
	}
	return out
}

// Form construit la configuration complète du formulaire pour une page.
func Form(price float64, currency string) models.CODForm {
	return models.CODForm{
		Fields:     Fields(),
		Rules:      RuleMap(),
		Price:      price,
		Currency:   currency,
		SubmitText: "Commander - Paiement à la livraison",
	}
}
