package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Catégories d'erreurs, utilisables avec errors.Is.
var (
	ErrNotFound         = errors.New("ressource introuvable")
	ErrValidation       = errors.New("données invalides")
	ErrTransient        = errors.New("service temporairement indisponible")
	ErrTimeout          = errors.New("délai dépassé")
	ErrUnsupportedInput = errors.New("entrée non supportée")
)

// NotFoundError : l'identifiant référencé n'existe pas.
type NotFoundError struct {
	Resource string
	ID       string
}

func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s introuvable: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError agrège toutes les violations d'un formulaire.
// Fields garde l'ordre d'insertion via Order.
type ValidationError struct {
	Fields map[string]string
	Order  []string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add enregistre le premier message d'un champ ; les suivants sont ignorés.
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = message
	e.Order = append(e.Order, field)
}

func (e *ValidationError) HasErrors() bool { return len(e.Order) > 0 }

// OrNil retourne nil s'il n'y a aucune violation.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Order))
	for _, f := range e.Order {
		msgs = append(msgs, e.Fields[f])
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ServiceError : échec (simulé ou réel) d'un appel à un service externe.
type ServiceError struct {
	Service string
	Err     error
}

func Transient(service string, err error) *ServiceError {
	return &ServiceError{Service: service, Err: err}
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Service, ErrTransient.Error())
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrTransient }

// TimeoutError : une boucle de polling bornée a épuisé ses tentatives.
type TimeoutError struct {
	Operation string
	Attempts  int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: délai dépassé après %d tentatives", e.Operation, e.Attempts)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// UnsupportedInputError : URL dont le domaine n'est pas autorisé.
type UnsupportedInputError struct {
	Input  string
	Reason string
}

func (e *UnsupportedInputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("entrée non supportée: %s", e.Input)
	}
	return fmt.Sprintf("entrée non supportée: %s (%s)", e.Input, e.Reason)
}

func (e *UnsupportedInputError) Is(target error) bool { return target == ErrUnsupportedInput }

// HTTPStatus traduit une erreur en code HTTP.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnsupportedInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
