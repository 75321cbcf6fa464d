package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/school"
	"github.com/unimatch/authbridge/internal/token"
	"github.com/unimatch/authbridge/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "federation")

// State is a step of a federation attempt.
type State string

const (
	StateStart             State = "start"
	StateProofReceived     State = "proof_received"
	StateVerified          State = "verified"
	StateProfileReconciled State = "profile_reconciled"
	StateSchoolInferred    State = "school_inferred"
	StateTokenIssued       State = "token_issued"
	StateFailed            State = "failed"
)

// Proof is what the caller brought back from the identity provider.
type Proof struct {
	// OAuth
	Provider      string
	Code          string
	ProviderError string // error parameter returned by the provider, if any

	// Email confirmation
	Confirmation core.EmailConfirmation
}

// Result is the terminal outcome of StartFederation. Exactly one of Token and
// ErrorCode is set.
type Result struct {
	Flow       string
	RedirectTo string
	Token      string
	ErrorCode  string
	Kind       ErrorKind
	State      State
	Err        *FlowError
	Profile    *models.Profile
	Claims     *core.SessionClaims
}

// RedirectURL is RedirectTo with token= or error= appended.
func (r *Result) RedirectURL() string {
	if r.Token != "" {
		return util.AppendQuery(r.RedirectTo, "token", r.Token)
	}
	return util.AppendQuery(r.RedirectTo, "error", r.ErrorCode)
}

// Failed reports whether the attempt ended in the failed state.
func (r *Result) Failed() bool {
	return r.State == StateFailed
}

func (r *Result) fail(kind ErrorKind, code string, err error) *Result {
	r.State = StateFailed
	r.Kind = kind
	r.ErrorCode = code
	r.Token = ""
	r.Claims = nil
	r.Err = &FlowError{Kind: kind, Code: code, Err: err}
	return r
}

// SchoolInferrer is implemented by school.Service.
type SchoolInferrer interface {
	InferAndApply(ctx context.Context, email, profileID string) (string, error)
}

// FederationService runs the OAuth and email-confirmation flows from proof to
// session token.
type FederationService struct {
	providers   map[string]core.OAuthIdentityProvider
	email       core.EmailVerifier
	profiles    *ProfileReconciler
	school      SchoolInferrer
	tokens      core.TokenCodec
	redirects   *RedirectStore
	metrics     core.Recorder
	validate    *validator.Validate
	tolerated   map[string]struct{}
	callback    string
	origins     []string
	confirmURL  string
	confirmType string
}

// NewFederationService wires the flow. email and school may be nil.
func NewFederationService(
	cfg *config.Config,
	providers []core.OAuthIdentityProvider,
	email core.EmailVerifier,
	profiles *ProfileReconciler,
	school SchoolInferrer,
	tokens core.TokenCodec,
	redirects *RedirectStore,
	m core.Recorder,
) *FederationService {
	s := &FederationService{
		providers:   make(map[string]core.OAuthIdentityProvider, len(providers)),
		email:       email,
		profiles:    profiles,
		school:      school,
		tokens:      tokens,
		redirects:   redirects,
		metrics:     m,
		validate:    validator.New(),
		tolerated:   make(map[string]struct{}, len(cfg.SchoolToleratedErrors)),
		callback:    cfg.DefaultCallbackURL,
		origins:     cfg.AllowedCallbackOrigins,
		confirmURL:  cfg.MagicLinkRedirect,
		confirmType: cfg.EmailDefaultType,
	}
	for _, p := range providers {
		s.providers[p.Name()] = p
	}
	for _, code := range cfg.SchoolToleratedErrors {
		s.tolerated[code] = struct{}{}
	}
	if s.confirmURL == "" {
		s.confirmURL = cfg.BaseURL + cfg.EmailConfirmPath
	}
	return s
}

// Providers returns the registered OAuth provider names, sorted.
func (s *FederationService) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasProvider reports whether name is a registered OAuth provider.
func (s *FederationService) HasProvider(name string) bool {
	_, ok := s.providers[name]
	return ok
}

// EmailEnabled reports whether the email-confirmation flow is available.
func (s *FederationService) EmailEnabled() bool {
	return s.email != nil
}

// BeginOAuth stores the caller's callback under a fresh handle and returns
// the provider's authorization URL carrying that handle as state.
func (s *FederationService) BeginOAuth(ctx context.Context, provider, callbackURL string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	handle, err := s.redirects.Save(ctx, models.PendingRedirect{
		CallbackURL: s.resolveCallback(callbackURL),
		Flow:        models.FlowOAuth,
		Provider:    provider,
	})
	if err != nil {
		return "", err
	}
	return p.AuthCodeURL(handle), nil
}

// BeginMagicLink stores the caller's callback and asks the email provider to
// send a sign-in link whose confirmation URL carries the handle as state.
func (s *FederationService) BeginMagicLink(ctx context.Context, email, callbackURL string) error {
	if s.email == nil {
		return ErrEmailFlowDisabled
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	handle, err := s.redirects.Save(ctx, models.PendingRedirect{
		CallbackURL: s.resolveCallback(callbackURL),
		Flow:        models.FlowEmail,
	})
	if err != nil {
		return err
	}

	err = s.email.SendMagicLink(ctx, email, util.AppendQuery(s.confirmURL, "state", handle))
	s.metrics.RecordMagicLinkSent(err == nil)
	if err != nil {
		// The handle will never come back.
		_, _ = s.redirects.Take(ctx, handle)
		return fmt.Errorf("%w: %v", ErrMagicLinkFailed, err)
	}
	return nil
}

func (s *FederationService) resolveCallback(callbackURL string) string {
	resolved := util.ResolveCallback(callbackURL, s.callback, s.origins)
	if callbackURL != "" && resolved != callbackURL {
		log.WithField("callback_url", callbackURL).Warn("callback origin not allowed, using default")
	}
	return resolved
}

// FailureRedirect is the resolved callback with error=code appended. It is
// used when an attempt cannot even be started.
func (s *FederationService) FailureRedirect(callbackURL, code string) string {
	return util.AppendQuery(s.resolveCallback(callbackURL), "error", code)
}

// StartFederation runs one attempt of flow (models.FlowOAuth or
// models.FlowEmail) and always returns a terminal Result. handle is the state
// value returned by the provider; it is consumed whether or not the attempt
// succeeds.
func (s *FederationService) StartFederation(
	ctx context.Context,
	flow string,
	proof Proof,
	handle string,
) (res *Result) {
	started := time.Now()
	res = &Result{Flow: flow, State: StateStart, RedirectTo: s.callback}
	entry := log.WithFields(logrus.Fields{
		"flow":      flow,
		"provider":  proof.Provider,
		"client_ip": util.GetIPFromContext(ctx),
	})

	defer func() {
		if r := recover(); r != nil {
			entry.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("federation attempt panicked")
			res.fail(KindInternal, failureCode(flow), fmt.Errorf("panic: %v", r))
		}

		outcome := "success"
		if res.Failed() {
			outcome = "failure"
			entry.WithError(res.Err).WithFields(logrus.Fields{
				"code": res.ErrorCode,
				"kind": res.Kind,
			}).Warn("federation failed")
		}
		s.metrics.RecordFederation(flow, outcome, res.ErrorCode, time.Since(started))
	}()

	pending := s.claimRedirect(ctx, flow, handle)
	if pending != nil {
		res.RedirectTo = pending.CallbackURL
	}

	var identity *core.VerifiedIdentity
	switch flow {
	case models.FlowOAuth:
		identity = s.verifyOAuth(ctx, res, proof, pending)
	case models.FlowEmail:
		identity = s.verifyEmail(ctx, res, proof.Confirmation)
	default:
		return res.fail(KindProofInvalid, CodeUnknownProvider, fmt.Errorf("unknown flow %q", flow))
	}
	if res.Failed() {
		return res
	}
	res.State = StateVerified

	s.complete(ctx, res, identity)
	if !res.Failed() {
		entry.WithField("profile_id", res.Profile.ID).Info("federation succeeded")
	}
	return res
}

func (s *FederationService) claimRedirect(ctx context.Context, flow, handle string) *models.PendingRedirect {
	if handle == "" {
		return nil
	}
	pending, err := s.redirects.Take(ctx, handle)
	if err != nil {
		if !errors.Is(err, ErrRedirectNotFound) {
			log.WithError(err).Warn("pending redirect lookup failed")
		}
		return nil
	}
	if pending.Flow != flow {
		log.WithFields(logrus.Fields{
			"handle_sha256": util.SHA256Hex(handle),
			"want_flow":     flow,
			"got_flow":      pending.Flow,
		}).Warn("pending redirect belongs to another flow")
		return nil
	}
	return pending
}

func (s *FederationService) verifyOAuth(
	ctx context.Context,
	res *Result,
	proof Proof,
	pending *models.PendingRedirect,
) *core.VerifiedIdentity {
	p, ok := s.providers[proof.Provider]
	if !ok {
		res.fail(KindProofInvalid, CodeUnknownProvider, fmt.Errorf("%w: %q", ErrUnknownProvider, proof.Provider))
		return nil
	}
	if pending == nil || pending.Provider != proof.Provider {
		res.fail(KindProofInvalid, CodeInvalidState, ErrRedirectNotFound)
		return nil
	}
	res.State = StateProofReceived

	if proof.ProviderError != "" {
		res.fail(KindProofInvalid, CodeOAuthFailed, fmt.Errorf("provider returned error %q", proof.ProviderError))
		return nil
	}
	if proof.Code == "" {
		res.fail(KindProofInvalid, CodeMissingCode, errors.New("authorization code missing"))
		return nil
	}

	identity, err := p.ExchangeCode(ctx, proof.Code)
	switch {
	case errors.Is(err, core.ErrNoUserInfo):
		res.fail(KindIdentityIncomplete, CodeNoUserInfo, err)
		return nil
	case err != nil:
		res.fail(proofErrorKind(err), CodeOAuthFailed, err)
		return nil
	case identity == nil || strings.TrimSpace(identity.Email) == "":
		res.fail(KindIdentityIncomplete, CodeNoUserInfo, ErrMissingEmail)
		return nil
	}
	return identity
}

func (s *FederationService) verifyEmail(
	ctx context.Context,
	res *Result,
	conf core.EmailConfirmation,
) *core.VerifiedIdentity {
	if conf.TokenHash == "" && conf.Token == "" {
		res.fail(KindProofInvalid, CodeMissingToken, errors.New("neither token_hash nor token present"))
		return nil
	}
	res.State = StateProofReceived

	if s.email == nil {
		res.fail(KindProofInvalid, CodeConfirmFailed, ErrEmailFlowDisabled)
		return nil
	}
	if conf.Type == "" {
		conf.Type = s.confirmType
	}

	identity, err := s.email.Verify(ctx, conf)
	switch {
	case errors.Is(err, core.ErrNoUserInfo):
		res.fail(KindIdentityIncomplete, CodeMissingEmail, err)
		return nil
	case err != nil:
		res.fail(proofErrorKind(err), CodeConfirmFailed, err)
		return nil
	case identity == nil || strings.TrimSpace(identity.Email) == "":
		res.fail(KindIdentityIncomplete, CodeMissingEmail, ErrMissingEmail)
		return nil
	}
	return identity
}

// complete runs reconciliation, school inference and token issuance.
func (s *FederationService) complete(ctx context.Context, res *Result, identity *core.VerifiedIdentity) {
	profile, err := s.profiles.UpsertFromIdentity(ctx, identity)
	if err != nil {
		kind := KindProfileConflict
		if isTransientStoreError(err) {
			kind = KindTransient
		}
		res.fail(kind, CodeProfileUpsertFailed, err)
		return
	}
	res.Profile = profile
	res.State = StateProfileReconciled

	if s.school != nil {
		name, err := s.school.InferAndApply(ctx, profile.Email, profile.ID)
		code := school.ErrorCode(err)
		switch {
		case err == nil && name != "":
			profile.School = &name
		case err == nil:
			// no school for this domain
		case s.isTolerated(code):
			log.WithError(err).WithFields(logrus.Fields{
				"profile_id": profile.ID,
				"code":       code,
			}).Warn("school inference failed, continuing")
		case school.IsPolicyError(err):
			res.fail(KindPolicyRejected, code, err)
			return
		default:
			res.fail(KindTransient, code, err)
			return
		}
	}
	res.State = StateSchoolInferred

	claims := s.tokens.NewClaims(
		profile.ID,
		profile.Email,
		firstNonEmpty(profile.Name, identity.Name),
		firstNonEmpty(identity.PictureURL, profile.PictureURL),
	)
	signed, err := s.tokens.Issue(claims)
	if err != nil {
		res.fail(KindInternal, failureCode(res.Flow), err)
		return
	}

	res.Token = signed
	res.Claims = &claims
	res.State = StateTokenIssued
	s.metrics.RecordTokenIssued(res.Flow)
}

func (s *FederationService) isTolerated(code string) bool {
	_, ok := s.tolerated[code]
	return ok
}

// IssueForCurrentSession validates a bearer token and returns its claims.
// Every failure is reported as ErrUnauthenticated.
func (s *FederationService) IssueForCurrentSession(
	ctx context.Context,
	bearer string,
) (*core.SessionClaims, error) {
	raw := strings.TrimSpace(bearer)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		s.metrics.RecordTokenValidation("missing")
		return nil, ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(raw)
	if err != nil {
		result := "invalid"
		if errors.Is(err, token.ErrExpiredToken) {
			result = "expired"
		}
		s.metrics.RecordTokenValidation(result)
		log.WithError(err).WithField("client_ip", util.GetIPFromContext(ctx)).Debug("bearer token rejected")
		return nil, &FlowError{Kind: KindTokenInvalid, Code: ErrUnauthenticated.Error(), Err: ErrUnauthenticated}
	}

	s.metrics.RecordTokenValidation("valid")
	return claims, nil
}

func proofErrorKind(err error) ErrorKind {
	if errors.Is(err, core.ErrProviderUnavailable) {
		return KindTransient
	}
	return KindProofInvalid
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
