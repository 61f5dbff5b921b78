// Package identity proves that a call originates from a claimed address.
//
// An address is the unpadded base64url encoding of an Ed25519 public key.
// Callers prove control of an address by signing a short-lived EdDSA JWT whose
// issuer and subject are the address, whose audience names the governor, and
// whose "method" claim binds it to one operation. The verifier recovers the
// public key from the claimed address itself, so no key registry is needed.
package identity
