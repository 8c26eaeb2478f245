package models

import "time"

// Étapes du pipeline de génération.
type GenerationStep string

const (
	StepStarting    GenerationStep = "starting"
	StepExtracting  GenerationStep = "extracting"
	StepClassifying GenerationStep = "classifying"
	StepDesigning   GenerationStep = "designing"
	StepContent     GenerationStep = "content"
	StepImages      GenerationStep = "images"
	StepCountdown   GenerationStep = "countdown"
	StepForm        GenerationStep = "form"
	StepCompleted   GenerationStep = "completed"
	StepError       GenerationStep = "error"
)

type GenerationProgress struct {
	Step      GenerationStep `json:"step"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Completed bool           `json:"completed"`
	Error     string         `json:"error,omitempty"`
}

type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

type Customizations struct {
	CountdownHours int          `json:"countdownHours,omitempty"`
	UrgencyLevel   UrgencyLevel `json:"urgencyLevel,omitempty"`
	Language       string       `json:"language,omitempty"`
	Tone           string       `json:"tone,omitempty"`
	PrimaryColor   string       `json:"primaryColor,omitempty"`
}

type GenerationRequest struct {
	ProductURL     string         `json:"productUrl"`
	Customizations Customizations `json:"customizations"`
}

type ProductInfo struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"originalPrice,omitempty"`
	Currency      string   `json:"currency"`
	Brand         string   `json:"brand,omitempty"`
	Rating        float64  `json:"rating,omitempty"`
	Images        []string `json:"images"`
	Features      []string `json:"features,omitempty"`
	SourceURL     string   `json:"sourceUrl"`
	Source        string   `json:"source"`
}

type ProductClassification struct {
	Category       string   `json:"category"`
	Subcategory    string   `json:"subcategory"`
	TargetAudience string   `json:"targetAudience"`
	PriceRange     string   `json:"priceRange"`
	Keywords       []string `json:"keywords"`
	Tone           string   `json:"tone"`
}

type DesignTheme struct {
	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	AccentColor     string `json:"accentColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	FontHeading     string `json:"fontHeading"`
	FontBody        string `json:"fontBody"`
	Style           string `json:"style"`
}

type Testimonial struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type GeneratedContent struct {
	Headline     string        `json:"headline"`
	Subheadline  string        `json:"subheadline"`
	Description  string        `json:"description"`
	Benefits     []string      `json:"benefits"`
	CallToAction string        `json:"callToAction"`
	UrgencyText  string        `json:"urgencyText"`
	Testimonials []Testimonial `json:"testimonials"`
	FAQs         []FAQ         `json:"faqs"`
	Guarantee    string        `json:"guarantee"`
}

type ProcessedImage struct {
	Original          string `json:"original"`
	BackgroundRemoved string `json:"backgroundRemoved"`
	Optimized         string `json:"optimized"`
	Thumbnail         string `json:"thumbnail"`
	Alt               string `json:"alt"`
}

type CountdownTimer struct {
	EndTime      time.Time    `json:"endTime"`
	Title        string       `json:"title"`
	UrgencyLevel UrgencyLevel `json:"urgencyLevel"`
	Enabled      bool         `json:"enabled"`
}

type FieldRule struct {
	Required  bool     `json:"required"`
	MinLength int      `json:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

type FormField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Placeholder string `json:"placeholder,omitempty"`
}

type CODForm struct {
	Fields     []FormField          `json:"fields"`
	Rules      map[string]FieldRule `json:"rules"`
	Price      float64              `json:"price"`
	Currency   string               `json:"currency"`
	SubmitText string               `json:"submitText"`
}

type LandingPageData struct {
	Product        ProductInfo           `json:"product"`
	Classification ProductClassification `json:"classification"`
	Theme          DesignTheme           `json:"theme"`
	Content        GeneratedContent      `json:"content"`
	Images         []ProcessedImage      `json:"images"`
	Countdown      CountdownTimer        `json:"countdown"`
	Form           CODForm               `json:"form"`
	SourceURL      string                `json:"sourceUrl"`
	GeneratedAt    time.Time             `json:"generatedAt"`
}

type PublishedPage struct {
	ID          string          `json:"id"`
	URL         string          `json:"url"`
	QRCode      string          `json:"qrCode,omitempty"`
	Data        LandingPageData `json:"data"`
	PublishedAt time.Time       `json:"publishedAt"`
}
