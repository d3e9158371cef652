package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/recyclequest/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns plaintext passwords into one-way digests and checks
// plaintext against a stored digest.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

const (
	DefaultBcryptCost   = 12
	bcryptMaxInput      = 72
	DefaultArgon2Time   = 1
	argon2Memory        = 64 * 1024
	argon2Threads       = 4
	argon2KeyLength     = 32
	argon2SaltLength    = 16
	argon2DigestPrefix  = "$argon2id$"
	argon2DigestVersion = argon2.Version
)

// NewPasswordHasher returns the hasher named by algorithm ("bcrypt" or
// "argon2id"). A zero cost selects the algorithm default.
func NewPasswordHasher(algorithm string, cost int) (PasswordHasher, error) {
	switch algorithm {
	case "", "bcrypt":
		return NewBcryptHasher(cost), nil
	case "argon2id":
		return NewArgon2Hasher(uint32(cost)), nil
	default:
		return nil, fmt.Errorf("unknown password hash algorithm %q", algorithm)
	}
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher clamps cost to bcrypt's accepted range; zero means
// DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = DefaultBcryptCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Cost() int {
	return h.cost
}

// bcryptInput returns plaintext unchanged when bcrypt can take it whole.
// Longer inputs are replaced by the base64 SHA-256 of the full plaintext,
// since bcrypt rejects more than 72 bytes.
func bcryptInput(plaintext string) []byte {
	if len(plaintext) <= bcryptMaxInput {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(bcryptInput(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), bcryptInput(plaintext)) == nil
}

// Argon2Hasher produces PHC-formatted argon2id digests:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
//
// Salt and key are unpadded standard base64. Verify reads the parameters
// back from the digest, so changing the time cost does not invalidate
// stored passwords.
type Argon2Hasher struct {
	time uint32
}

func NewArgon2Hasher(time uint32) *Argon2Hasher {
	if time == 0 {
		time = DefaultArgon2Time
	}
	return &Argon2Hasher{time: time}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	salt, err := common.GenerateRandBytes(argon2SaltLength)
	if err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.time, argon2Memory, argon2Threads, argon2KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2DigestPrefix, argon2DigestVersion, argon2Memory, h.time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2Hasher) Verify(plaintext, digest string) bool {
	p, err := parseArgon2Digest(digest)
	if err != nil {
		return false
	}

	key := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(key, p.key) == 1
}

var errInvalidDigest = errors.New("invalid argon2id digest")

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2Digest(digest string) (*argon2Params, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, errInvalidDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2DigestVersion {
		return nil, errInvalidDigest
	}

	p := &argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, errInvalidDigest
	}
	if p.time == 0 || p.threads == 0 {
		return nil, errInvalidDigest
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, errInvalidDigest
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, errInvalidDigest
	}

	return p, nil
}
