package crypto

import (
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
	"go.dedis.ch/kyber/v3/sign/schnorr"
	"go.dedis.ch/kyber/v3/util/random"
	"golang.org/x/xerrors"
)

// Cryptosystem names the asymmetric scheme a Signer implements. The
// original source's Cryptosystem enum has exactly one case (rsa) and
// throws on any other value (cryptography/Cryptosystem.cc); Signer
// keeps that single-variant shape rather than a speculative plugin
// registry (spec.md section 9).
type Cryptosystem int

const (
	CryptosystemSchnorr Cryptosystem = iota
)

func (c Cryptosystem) String() string {
	switch c {
	case CryptosystemSchnorr:
		return "schnorr"
	default:
		panic(xerrors.Errorf("crypto: unknown asymmetric cryptosystem %d", int(c)))
	}
}

var suite = edwards25519.NewBlakeSHA256Ed25519()

// Signer is the asymmetric capability the tree's address codec consumes
// when rotation_enabled gates a signed root publish. It stands in for
// the spec's abstract RSA interface: the core only ever calls Sign and
// Verify against a capability, never against a concrete cryptosystem.
type Signer struct {
	system  Cryptosystem
	private kyber.Scalar
	public  kyber.Point
}

// NewSigner constructs a Signer for the given cryptosystem. Passing any
// value other than CryptosystemSchnorr panics, mirroring the original's
// single-variant enum.
func NewSigner(system Cryptosystem) *Signer {
	if system != CryptosystemSchnorr {
		panic(xerrors.Errorf("crypto: unsupported cryptosystem %d", int(system)))
	}
	private := suite.Scalar().Pick(random.New())
	public := suite.Point().Mul(private, nil)
	return &Signer{system: system, private: private, public: public}
}

// PublicKey returns the marshaled public key for out-of-band distribution.
func (s *Signer) PublicKey() ([]byte, error) {
	return s.public.MarshalBinary()
}

// Sign produces a Schnorr signature over msg.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	sig, err := schnorr.Sign(suite, s.private, msg)
	if err != nil {
		return nil, xerrors.Errorf("crypto: signing: %w", err)
	}
	return sig, nil
}

// VerifyWithPublicKey checks sig against msg and a marshaled public key.
func VerifyWithPublicKey(publicKey, msg, sig []byte) error {
	point := suite.Point()
	if err := point.UnmarshalBinary(publicKey); err != nil {
		return xerrors.Errorf("crypto: unmarshaling public key: %w", err)
	}
	if err := schnorr.Verify(suite, point, msg, sig); err != nil {
		return xerrors.Errorf("crypto: %w", ErrOpenFailed)
	}
	return nil
}
