package discount

import (
	"fmt"

	"flashoff_back_end/internal/shopify"
)

// ValidationError - entrée marchande invalide, rien n'a été envoyé à Shopify
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ExternalServiceError - Shopify a refusé la mutation ou était injoignable.
// Les userErrors de la plateforme sont conservées telles quelles pour
// affichage au marchand.
type ExternalServiceError struct {
	Message    string
	UserErrors []shopify.UserError
}

func (e *ExternalServiceError) Error() string {
	return e.Message
}

// PersistenceError - la sauvegarde locale a échoué APRÈS une création réussie
// côté Shopify. La remise reste vivante sur la plateforme : l'appelant doit
// journaliser un avertissement, pas annuler l'opération.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sauvegarde locale échouée (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
