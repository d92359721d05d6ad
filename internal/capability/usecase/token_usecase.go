package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/allisson/captoken/internal/audit/domain"
	capabilityDomain "github.com/allisson/captoken/internal/capability/domain"
	capabilityService "github.com/allisson/captoken/internal/capability/service"
	apperrors "github.com/allisson/captoken/internal/errors"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
	"github.com/allisson/captoken/internal/validation"
)

// TokenConfig holds token use case configuration. Zero values fall back to
// the defaults.
type TokenConfig struct {
	// ClockSkew is subtracted from a token's start time before signing so a
	// verifier with a slightly slow clock does not reject a fresh token.
	ClockSkew time.Duration
	// MaxTTL caps the validity window a caller can request.
	MaxTTL time.Duration
	// StoreTimeout bounds each policy and signing key lookup.
	StoreTimeout time.Duration
}

const (
	defaultClockSkew    = 5 * time.Minute
	defaultMaxTTL       = 7 * 24 * time.Hour
	defaultStoreTimeout = 500 * time.Millisecond
)

// tokenUseCase implements the TokenUseCase interface.
type tokenUseCase struct {
	config      TokenConfig
	policyRepo  PolicyRepository
	signingKeys SigningKeyProvider
	codec       capabilityService.TokenCodec
	signer      capabilityService.TokenSigner
	audit       AuditRecorder
	logger      *slog.Logger
}

// NewTokenUseCase creates a token use case.
func NewTokenUseCase(
	config TokenConfig,
	policyRepo PolicyRepository,
	signingKeys SigningKeyProvider,
	codec capabilityService.TokenCodec,
	signer capabilityService.TokenSigner,
	audit AuditRecorder,
	logger *slog.Logger,
) TokenUseCase {
	if config.ClockSkew <= 0 {
		config.ClockSkew = defaultClockSkew
	}
	if config.MaxTTL <= 0 {
		config.MaxTTL = defaultMaxTTL
	}
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = defaultStoreTimeout
	}
	return &tokenUseCase{
		config:      config,
		policyRepo:  policyRepo,
		signingKeys: signingKeys,
		codec:       codec,
		signer:      signer,
		audit:       audit,
		logger:      logger,
	}
}

// Issue mints a signed capability token.
//
// Ad hoc requests must carry permissions and a validity window. Policy-scoped
// requests must fit inside the referenced policy; whatever they leave out
// (permissions, window) is inherited from the policy. The token's start time
// is backdated by the clock skew buffer before signing, except when the
// policy's own window is inherited verbatim.
func (u *tokenUseCase) Issue(
	ctx context.Context,
	input *capabilityDomain.IssueTokenInput,
) (*capabilityDomain.IssueTokenOutput, error) {
	now := time.Now().UTC().Truncate(time.Second)

	if !validation.IsResourcePath(input.ResourcePath) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "resource path must be an absolute resource path")
	}
	if !input.MatchMode.Valid() {
		return nil, capabilityDomain.ErrUnknownMatchMode
	}

	permissions, err := capabilityDomain.NormalizePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}

	requestedStart, requestedExpiry, err := u.resolveWindow(input, now)
	if err != nil {
		return nil, err
	}
	hasWindow := !requestedExpiry.IsZero()

	tokenPermissions := permissions
	tokenStart := requestedStart.Add(-u.config.ClockSkew)
	tokenExpiry := requestedExpiry

	if input.PolicyID == uuid.Nil {
		if len(permissions) == 0 {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "at least one permission is required")
		}
		if !hasWindow {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "ttl_seconds or expires_on is required")
		}
	} else {
		policy, err := u.fetchPolicy(ctx, input.PolicyID)
		if err != nil {
			return nil, err
		}
		if !policy.ExpiresOn.After(now) {
			return nil, apperrors.Wrap(capabilityDomain.ErrScopeExceedsPolicy, "policy window has closed")
		}
		if !capabilityDomain.PathWithinPrefix(policy.ResourcePrefix, input.ResourcePath) {
			return nil, apperrors.Wrap(capabilityDomain.ErrScopeExceedsPolicy, "resource path outside policy prefix")
		}

		if len(permissions) == 0 {
			tokenPermissions = policy.Permissions
		} else if !capabilityDomain.PermissionsSubset(permissions, policy.Permissions) {
			return nil, apperrors.Wrap(capabilityDomain.ErrScopeExceedsPolicy, "requested permissions exceed policy")
		}

		if !hasWindow {
			// The policy window is authoritative at validation; carry it
			// verbatim, without skew backdating.
			tokenStart = policy.StartsOn
			tokenExpiry = policy.ExpiresOn
		} else if requestedStart.Before(policy.StartsOn) || requestedExpiry.After(policy.ExpiresOn) {
			return nil, apperrors.Wrap(capabilityDomain.ErrScopeExceedsPolicy, "requested window exceeds policy")
		}
	}

	key, err := u.activeKey(ctx)
	if err != nil {
		return nil, err
	}

	token := &capabilityDomain.CapabilityToken{
		Version:      capabilityDomain.TokenVersion,
		ResourcePath: input.ResourcePath,
		MatchMode:    input.MatchMode,
		Permissions:  tokenPermissions,
		StartsOn:     tokenStart,
		ExpiresOn:    tokenExpiry,
		SigningKeyID: key.ID,
		PolicyID:     input.PolicyID,
		IPRange:      input.IPRange,
		HTTPSOnly:    input.HTTPSOnly,
	}

	token.Signature, err = u.signer.Sign(key.Material, token)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to sign token")
	}

	encoded, err := u.codec.Encode(token)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode token")
	}

	u.recordAudit(ctx, &auditDomain.Event{
		RequestID:    input.RequestID,
		ClientID:     input.ClientID,
		Action:       auditDomain.ActionTokenIssue,
		Granted:      true,
		ResourcePath: token.ResourcePath,
		Permissions:  capabilityDomain.EncodePermissions(token.Permissions),
		PolicyID:     token.PolicyID,
		SigningKeyID: token.SigningKeyID,
		Metadata: map[string]any{
			"match_mode": string(token.MatchMode),
			"expires_on": token.ExpiresOn.Format(time.RFC3339),
			"https_only": token.HTTPSOnly,
		},
	})

	return &capabilityDomain.IssueTokenOutput{
		Token:     encoded,
		ExpiresOn: token.ExpiresOn,
	}, nil
}

// resolveWindow derives the requested validity window from the TTL or the
// explicit bounds. A zero expiry means no window was requested, which only
// policy-scoped requests may do.
func (u *tokenUseCase) resolveWindow(
	input *capabilityDomain.IssueTokenInput,
	now time.Time,
) (start time.Time, expiry time.Time, err error) {
	if input.TTL < 0 {
		return start, expiry, apperrors.Wrap(apperrors.ErrInvalidInput, "ttl_seconds must be positive")
	}
	if input.TTL > 0 && !input.ExpiresOn.IsZero() {
		return start, expiry, apperrors.Wrap(apperrors.ErrInvalidInput, "ttl_seconds and expires_on are mutually exclusive")
	}

	start = now
	if !input.StartsOn.IsZero() {
		start = input.StartsOn.UTC().Truncate(time.Second)
	}

	switch {
	case input.TTL > 0:
		expiry = start.Add(input.TTL.Truncate(time.Second))
	case !input.ExpiresOn.IsZero():
		expiry = input.ExpiresOn.UTC().Truncate(time.Second)
	default:
		return start, time.Time{}, nil
	}

	if !expiry.After(start) {
		return start, expiry, apperrors.Wrap(apperrors.ErrInvalidInput, "expires_on must be after starts_on")
	}
	if expiry.Sub(start) > u.config.MaxTTL {
		return start, expiry, apperrors.Wrap(apperrors.ErrInvalidInput, "validity window exceeds the configured maximum")
	}

	return start, expiry, nil
}

// Check runs the validation sequence against a presented token. The first
// failing step decides the deny reason; every decision, granted or denied, is
// audited with the full reason.
func (u *tokenUseCase) Check(
	ctx context.Context,
	input *capabilityDomain.CheckInput,
) (*capabilityDomain.CheckResult, error) {
	now := time.Now().UTC()

	token, err := u.codec.Decode(input.Token)
	if err != nil {
		return u.deny(ctx, input, nil, capabilityDomain.DenyMalformed), nil
	}

	key, err := u.fetchKey(ctx, token.SigningKeyID)
	if err != nil {
		if apperrors.Is(err, signingDomain.ErrSigningKeyNotFound) {
			// Unknown key and bad MAC are indistinguishable on purpose.
			return u.deny(ctx, input, token, capabilityDomain.DenyBadSignature), nil
		}
		return nil, err
	}

	if err := u.signer.Verify(key.Material, token); err != nil {
		if apperrors.Is(err, capabilityDomain.ErrBadSignature) {
			return u.deny(ctx, input, token, capabilityDomain.DenyBadSignature), nil
		}
		return nil, apperrors.Wrap(err, "failed to verify token signature")
	}

	if !key.UsableAt(now) {
		return u.deny(ctx, input, token, capabilityDomain.DenyKeyRetired), nil
	}

	protocol := strings.ToLower(input.Protocol)
	if protocol == "" {
		protocol = capabilityDomain.ProtocolHTTPSOnly
	}
	if token.HTTPSOnly && protocol != capabilityDomain.ProtocolHTTPSOnly {
		return u.deny(ctx, input, token, capabilityDomain.DenyProtocolViolation), nil
	}

	if token.IPRange.IsValid() {
		if !input.CallerIP.IsValid() || !token.IPRange.Contains(input.CallerIP.Unmap()) {
			return u.deny(ctx, input, token, capabilityDomain.DenyIPViolation), nil
		}
	}

	effectivePermissions := token.Permissions
	effectiveStart := token.StartsOn
	effectiveExpiry := token.ExpiresOn
	if !token.AdHoc() {
		policy, err := u.fetchPolicy(ctx, token.PolicyID)
		if err != nil {
			if apperrors.Is(err, capabilityDomain.ErrPolicyNotFound) {
				return u.deny(ctx, input, token, capabilityDomain.DenyPolicyRevoked), nil
			}
			return nil, err
		}
		if !policy.ExpiresOn.After(now) {
			return u.deny(ctx, input, token, capabilityDomain.DenyPolicyRevoked), nil
		}
		// The stored policy replaces the token's own scope entirely.
		effectivePermissions = policy.Permissions
		effectiveStart = policy.StartsOn
		effectiveExpiry = policy.ExpiresOn
	}

	if now.Before(effectiveStart) {
		return u.deny(ctx, input, token, capabilityDomain.DenyNotYetValid), nil
	}
	if !now.Before(effectiveExpiry) {
		return u.deny(ctx, input, token, capabilityDomain.DenyExpired), nil
	}

	if !token.Covers(input.Path) {
		return u.deny(ctx, input, token, capabilityDomain.DenyPathMismatch), nil
	}

	if !capabilityDomain.HasPermission(effectivePermissions, input.Permission) {
		return u.deny(ctx, input, token, capabilityDomain.DenyInsufficientPermission), nil
	}

	u.auditCheck(ctx, input, token, capabilityDomain.DenyReasonNone)
	return &capabilityDomain.CheckResult{
		Granted: true,
		Reason:  capabilityDomain.DenyReasonNone,
		Token:   token,
	}, nil
}

// deny builds a denied result and records the internal reason. The reason
// never travels past the use case boundary.
func (u *tokenUseCase) deny(
	ctx context.Context,
	input *capabilityDomain.CheckInput,
	token *capabilityDomain.CapabilityToken,
	reason capabilityDomain.DenyReason,
) *capabilityDomain.CheckResult {
	if u.logger != nil {
		u.logger.Debug("token check denied",
			slog.String("reason", string(reason)),
			slog.String("path", input.Path),
		)
	}
	u.auditCheck(ctx, input, token, reason)
	return &capabilityDomain.CheckResult{
		Granted: false,
		Reason:  reason,
		Token:   token,
	}
}

// auditCheck records a validation decision. Token fields are included only
// when the token decoded.
func (u *tokenUseCase) auditCheck(
	ctx context.Context,
	input *capabilityDomain.CheckInput,
	token *capabilityDomain.CapabilityToken,
	reason capabilityDomain.DenyReason,
) {
	event := &auditDomain.Event{
		RequestID:    input.RequestID,
		ClientID:     input.ClientID,
		Action:       auditDomain.ActionTokenCheck,
		Granted:      reason == capabilityDomain.DenyReasonNone,
		DenyReason:   string(reason),
		ResourcePath: input.Path,
		Permissions:  capabilityDomain.EncodePermissions([]capabilityDomain.Permission{input.Permission}),
	}
	if input.CallerIP.IsValid() {
		event.CallerIP = input.CallerIP.String()
	}
	if token != nil {
		event.PolicyID = token.PolicyID
		event.SigningKeyID = token.SigningKeyID
	}
	u.recordAudit(ctx, event)
}

// fetchPolicy loads a policy within the store-call timeout. Lookup failures
// other than a missing policy are reported as availability errors so the
// caller can distinguish "denied" from "could not decide".
func (u *tokenUseCase) fetchPolicy(ctx context.Context, policyID uuid.UUID) (*capabilityDomain.Policy, error) {
	storeCtx, cancel := context.WithTimeout(ctx, u.config.StoreTimeout)
	defer cancel()

	policy, err := u.policyRepo.Get(storeCtx, policyID)
	if err != nil {
		if apperrors.Is(err, capabilityDomain.ErrPolicyNotFound) {
			return nil, err
		}
		if u.logger != nil {
			u.logger.Error("policy lookup failed", slog.Any("error", err))
		}
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "policy store unavailable")
	}
	return policy, nil
}

// fetchKey loads a signing key within the store-call timeout.
func (u *tokenUseCase) fetchKey(ctx context.Context, keyID uuid.UUID) (*signingDomain.SigningKey, error) {
	storeCtx, cancel := context.WithTimeout(ctx, u.config.StoreTimeout)
	defer cancel()

	key, err := u.signingKeys.Get(storeCtx, keyID)
	if err != nil {
		if apperrors.Is(err, signingDomain.ErrSigningKeyNotFound) {
			return nil, err
		}
		if u.logger != nil {
			u.logger.Error("signing key lookup failed", slog.Any("error", err))
		}
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "signing key store unavailable")
	}
	return key, nil
}

// activeKey loads the active signing key within the store-call timeout.
// ErrNoActiveKey passes through untouched: it already classifies as
// unavailable and the handler maps it to 503.
func (u *tokenUseCase) activeKey(ctx context.Context) (*signingDomain.SigningKey, error) {
	storeCtx, cancel := context.WithTimeout(ctx, u.config.StoreTimeout)
	defer cancel()

	key, err := u.signingKeys.Active(storeCtx)
	if err != nil {
		if apperrors.Is(err, signingDomain.ErrNoActiveKey) {
			return nil, err
		}
		if u.logger != nil {
			u.logger.Error("active signing key lookup failed", slog.Any("error", err))
		}
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "signing key store unavailable")
	}
	return key, nil
}

// recordAudit emits an audit event without letting a failure surface.
func (u *tokenUseCase) recordAudit(ctx context.Context, event *auditDomain.Event) {
	if u.audit == nil {
		return
	}
	if err := u.audit.Record(ctx, event); err != nil && u.logger != nil {
		u.logger.Error("failed to record audit event",
			slog.String("action", string(event.Action)),
			slog.Any("error", err),
		)
	}
}
