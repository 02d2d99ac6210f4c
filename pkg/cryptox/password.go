package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm names the scheme used for newly created digests. Verification
// always understands both.
type Algorithm string

const (
	AlgorithmArgon2id Algorithm = "argon2id"
	AlgorithmBcrypt   Algorithm = "bcrypt"
)

// Upper bounds accepted when decoding a stored digest. A corrupted row must
// not be able to make us allocate gigabytes.
const (
	maxArgon2Memory     = 256 * 1024 // KiB
	maxArgon2Iterations = 16
	maxArgon2KeyLength  = 128
)

// ErrPasswordTooLong is returned by Hash when bcrypt is selected and the
// password exceeds its 72 byte input limit.
var ErrPasswordTooLong = errors.New("cryptox: password too long")

// MaxBcryptPasswordBytes is the most bcrypt will hash.
const MaxBcryptPasswordBytes = 72

// Argon2Params are the argon2id cost parameters written into new digests.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultArgon2Params follow the OWASP minimum for argon2id (19 MiB, t=2, p=1).
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	KeyLength:   32,
	SaltLength:  16,
}

// DefaultBcryptCost matches the cost the first version of Fitra hashed with.
const DefaultBcryptCost = 10

type HasherOptions struct {
	Algorithm  Algorithm
	Argon2     Argon2Params
	BcryptCost int

	// Pepper is appended to the password before argon2id hashing. Legacy
	// bcrypt digests were never peppered, so it is not applied to them.
	Pepper string
}

// Hasher hashes and verifies passwords. It holds no mutable state once
// built and is safe for concurrent use.
type Hasher struct {
	alg        Algorithm
	params     Argon2Params
	bcryptCost int
	pepper     string

	// dummy is a real digest of a random password, verified when there is
	// no account so both login failure paths cost the same.
	dummy string
}

// NewHasher validates opts, filling zero values with defaults.
func NewHasher(opts HasherOptions) (*Hasher, error) {
	h := &Hasher{
		alg:        opts.Algorithm,
		params:     opts.Argon2,
		bcryptCost: opts.BcryptCost,
		pepper:     opts.Pepper,
	}

	if h.alg == "" {
		h.alg = AlgorithmArgon2id
	}
	if h.params == (Argon2Params{}) {
		h.params = DefaultArgon2Params
	}
	if h.bcryptCost == 0 {
		h.bcryptCost = DefaultBcryptCost
	}

	switch h.alg {
	case AlgorithmArgon2id, AlgorithmBcrypt:
	default:
		return nil, fmt.Errorf("cryptox: unsupported password algorithm %q", h.alg)
	}
	if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("cryptox: bcrypt cost %d out of range", h.bcryptCost)
	}
	if h.params.Parallelism == 0 || h.params.Iterations == 0 || h.params.KeyLength == 0 || h.params.SaltLength == 0 {
		return nil, errors.New("cryptox: argon2 parameters must be non-zero")
	}

	dummyPassword, err := GenerateToken(TokenSize128)
	if err != nil {
		return nil, err
	}
	if h.dummy, err = h.Hash(dummyPassword); err != nil {
		return nil, err
	}

	return h, nil
}

// Algorithm reports the scheme used for new digests.
func (h *Hasher) Algorithm() Algorithm { return h.alg }

// Hash returns a salted digest of password. Two calls with the same input
// give different digests.
func (h *Hasher) Hash(password string) (string, error) {
	if h.alg == AlgorithmBcrypt {
		digest, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		if err != nil {
			return "", err
		}
		return string(digest), nil
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey(
		[]byte(password+h.pepper),
		salt,
		h.params.Iterations,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password produced digest. Malformed or unknown
// digests are a plain false.
func (h *Hasher) Verify(password, digest string) bool {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return h.verifyArgon2(password, digest)
	case isBcrypt(digest):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	default:
		return false
	}
}

// DummyVerify burns the same CPU as a real Verify and discards the result.
func (h *Hasher) DummyVerify(password string) {
	_ = h.Verify(password, h.dummy)
}

func (h *Hasher) verifyArgon2(password, digest string) bool {
	// ["", "argon2id", "v=19", "m=X,t=Y,p=Z", salt, key]
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return false
	}
	if mem == 0 || mem > maxArgon2Memory || iters == 0 || iters > maxArgon2Iterations || par == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 || len(want) > maxArgon2KeyLength {
		return false
	}

	got := argon2.IDKey([]byte(password+h.pepper), salt, iters, mem, par, uint32(len(want))) // #nosec G115 - bounded above
	return subtle.ConstantTimeCompare(got, want) == 1
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
