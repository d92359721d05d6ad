package usecase

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/allisson/captoken/internal/database"
	apperrors "github.com/allisson/captoken/internal/errors"
	signingDomain "github.com/allisson/captoken/internal/signing/domain"
)

// signingKeyUseCase implements the SigningKeyUseCase interface.
type signingKeyUseCase struct {
	txManager      database.TxManager
	signingKeyRepo SigningKeyRepository
	keeper         signingDomain.Keeper
	cache          *signingDomain.MaterialCache
	flight         singleflight.Group
}

// generateKey produces a signing key with fresh random material encrypted by
// the keeper. The returned plaintext material is not yet cached.
func (s *signingKeyUseCase) generateKey(
	ctx context.Context,
	now time.Time,
) (*signingDomain.SigningKey, []byte, error) {
	material := make([]byte, signingDomain.KeyMaterialSize)
	if _, err := rand.Read(material); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to generate signing key material")
	}

	encrypted, err := s.keeper.Encrypt(ctx, material)
	if err != nil {
		signingDomain.Zero(material)
		return nil, nil, apperrors.Wrap(err, "failed to encrypt signing key material")
	}

	key := &signingDomain.SigningKey{
		ID:                uuid.Must(uuid.NewV7()),
		EncryptedMaterial: encrypted,
		NotBefore:         now,
		NotAfter:          nil,
		CreatedAt:         now,
	}

	return key, material, nil
}

// loadMaterial populates key.Material, decrypting through the keeper on cache
// miss. Concurrent misses for the same key share a single keeper call. Cached
// material is shared; callers must not modify or zero it.
func (s *signingKeyUseCase) loadMaterial(ctx context.Context, key *signingDomain.SigningKey) error {
	if material, ok := s.cache.Get(key.ID); ok {
		key.Material = material
		return nil
	}

	value, err, _ := s.flight.Do(key.ID.String(), func() (any, error) {
		material, err := s.keeper.Decrypt(ctx, key.EncryptedMaterial)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to decrypt signing key material")
		}
		if len(material) != signingDomain.KeyMaterialSize {
			signingDomain.Zero(material)
			return nil, signingDomain.ErrInvalidKeyMaterial
		}

		s.cache.Put(key.ID, material)
		return material, nil
	})
	if err != nil {
		return err
	}

	key.Material = value.([]byte)
	return nil
}

// Create generates and stores the initial signing key.
//
// The key becomes active immediately with an open-ended window. If an active
// key already exists the call fails with domain.ErrKeyAlreadyExists, keeping
// rotation the only path that introduces additional keys.
func (s *signingKeyUseCase) Create(ctx context.Context) (*signingDomain.SigningKey, error) {
	now := time.Now().UTC()

	_, err := s.signingKeyRepo.GetActive(ctx, now)
	if err == nil {
		return nil, signingDomain.ErrKeyAlreadyExists
	}
	if !apperrors.Is(err, signingDomain.ErrNoActiveKey) {
		return nil, err
	}

	key, material, err := s.generateKey(ctx, now)
	if err != nil {
		return nil, err
	}

	if err := s.signingKeyRepo.Create(ctx, key); err != nil {
		signingDomain.Zero(material)
		return nil, err
	}

	s.cache.Put(key.ID, material)
	key.Material = material
	return key, nil
}

// Rotate introduces a new signing key and schedules the previous one to retire.
//
// The new key signs from now on. The previous key's window closes at
// now + overlap so tokens it signed stay verifiable through the overlap, then
// become invalid everywhere at once. An overlap of zero retires the previous
// key immediately. Both writes happen in one transaction.
func (s *signingKeyUseCase) Rotate(
	ctx context.Context,
	overlap time.Duration,
) (*signingDomain.RotationResult, error) {
	if overlap < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "overlap must not be negative")
	}

	now := time.Now().UTC()

	newKey, material, err := s.generateKey(ctx, now)
	if err != nil {
		return nil, err
	}

	var result *signingDomain.RotationResult
	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		previous, err := s.signingKeyRepo.GetActive(txCtx, now)
		if err != nil {
			return err
		}

		notAfter := now.Add(overlap)
		previous.NotAfter = &notAfter
		if err := s.signingKeyRepo.Update(txCtx, previous); err != nil {
			return err
		}

		if err := s.signingKeyRepo.Create(txCtx, newKey); err != nil {
			return err
		}

		result = &signingDomain.RotationResult{
			NewKeyID:         newKey.ID,
			PreviousKeyID:    previous.ID,
			PreviousNotAfter: notAfter,
		}
		return nil
	})
	if err != nil {
		signingDomain.Zero(material)
		return nil, err
	}

	s.cache.Put(newKey.ID, material)
	return result, nil
}

// Active returns the current signing key with decrypted material populated.
func (s *signingKeyUseCase) Active(ctx context.Context) (*signingDomain.SigningKey, error) {
	key, err := s.signingKeyRepo.GetActive(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.loadMaterial(ctx, key); err != nil {
		return nil, err
	}

	return key, nil
}

// Get returns a signing key by ID with decrypted material populated.
//
// Retired keys are returned with their material so signature checks over
// previously issued tokens can still run; the caller inspects the window.
func (s *signingKeyUseCase) Get(ctx context.Context, keyID uuid.UUID) (*signingDomain.SigningKey, error) {
	key, err := s.signingKeyRepo.Get(ctx, keyID)
	if err != nil {
		return nil, err
	}

	if err := s.loadMaterial(ctx, key); err != nil {
		return nil, err
	}

	return key, nil
}

// List returns all signing keys without decrypting material.
func (s *signingKeyUseCase) List(ctx context.Context) ([]*signingDomain.SigningKey, error) {
	return s.signingKeyRepo.List(ctx)
}

// Close zeros all cached key material.
func (s *signingKeyUseCase) Close() {
	s.cache.Close()
}

// NewSigningKeyUseCase creates a new signing key use case instance.
func NewSigningKeyUseCase(
	txManager database.TxManager,
	signingKeyRepo SigningKeyRepository,
	keeper signingDomain.Keeper,
) SigningKeyUseCase {
	return &signingKeyUseCase{
		txManager:      txManager,
		signingKeyRepo: signingKeyRepo,
		keeper:         keeper,
		cache:          signingDomain.NewMaterialCache(),
	}
}
