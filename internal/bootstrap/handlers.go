package bootstrap

import (
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/handlers"
	"github.com/unimatch/authbridge/internal/school"
	"github.com/unimatch/authbridge/internal/services"
)

// handlerSet holds all HTTP handlers and required services
type handlerSet struct {
	federation        *handlers.FederationHandler
	profile           *handlers.ProfileHandler
	federationService *services.FederationService
	hasOAuth          bool
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	federation *services.FederationService,
	profiles *services.ProfileReconciler,
	schools *school.Service,
	providers []core.OAuthIdentityProvider,
) handlerSet {
	return handlerSet{
		federation:        handlers.NewFederationHandler(federation, defaultProviderName(providers)),
		profile:           handlers.NewProfileHandler(profiles, schools),
		federationService: federation,
		hasOAuth:          len(providers) > 0,
	}
}
