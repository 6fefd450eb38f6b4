package authcrypt

import (
	"crypto/md5"
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrMalformedMD5CryptHash is returned when a configured override hash is
// not a well-formed "$1$salt$digest" MD5-crypt string. A malformed
// configured hash is an infrastructure fault: it must not be silently
// treated as "no override configured".
var ErrMalformedMD5CryptHash = errors.New("authcrypt: malformed md5-crypt hash")

const md5CryptMagic = "$1$"
const itoa64 = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// VerifyMD5Crypt reports whether password matches the legacy Unix
// MD5-crypt ("$1$"-style) hash, comparing in constant time. It returns an
// error only if hash is not a parseable MD5-crypt string; a wrong password
// against a well-formed hash simply returns (false, nil).
//
// This implementation is used exclusively to verify the configured
// override secret (do not reuse for any other purpose) and must never be
// used to hash new secrets — new maintainer hashes are always
// BCRYPT-PW (see ForceSingleNewPassword).
func VerifyMD5Crypt(hash, password string) (bool, error) {
	salt, wantDigest, err := splitMD5CryptHash(hash)
	if err != nil {
		return false, err
	}
	gotDigest := md5CryptDigest(password, salt)
	if len(gotDigest) != len(wantDigest) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(gotDigest), []byte(wantDigest)) == 1, nil
}

func splitMD5CryptHash(hash string) (salt, digest string, err error) {
	if !strings.HasPrefix(hash, md5CryptMagic) {
		return "", "", ErrMalformedMD5CryptHash
	}
	rest := hash[len(md5CryptMagic):]
	parts := strings.SplitN(rest, "$", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrMalformedMD5CryptHash
	}
	salt = parts[0]
	if len(salt) > 8 {
		salt = salt[:8]
	}
	return salt, parts[1], nil
}

// md5CryptDigest computes the base64-like digest portion of a "$1$salt$..."
// MD5-crypt hash for password under salt, following the original
// Poul-Henning Kamp algorithm.
func md5CryptDigest(password, salt string) string {
	pw := []byte(password)
	s := []byte(salt)

	alt := md5.New()
	alt.Write(pw)
	alt.Write(s)
	alt.Write(pw)
	altSum := alt.Sum(nil)

	ctx := md5.New()
	ctx.Write(pw)
	ctx.Write([]byte(md5CryptMagic))
	ctx.Write(s)
	for pl := len(pw); pl > 0; pl -= 16 {
		n := pl
		if n > 16 {
			n = 16
		}
		ctx.Write(altSum[:n])
	}
	for pl := len(pw); pl != 0; pl >>= 1 {
		if pl&1 != 0 {
			ctx.Write([]byte{0})
		} else {
			ctx.Write(pw[:1])
		}
	}
	final := ctx.Sum(nil)

	for i := 0; i < 1000; i++ {
		round := md5.New()
		if i&1 != 0 {
			round.Write(pw)
		} else {
			round.Write(final)
		}
		if i%3 != 0 {
			round.Write(s)
		}
		if i%7 != 0 {
			round.Write(pw)
		}
		if i&1 != 0 {
			round.Write(final)
		} else {
			round.Write(pw)
		}
		final = round.Sum(nil)
	}

	var b strings.Builder
	triples := [][3]int{
		{0, 6, 12},
		{1, 7, 13},
		{2, 8, 14},
		{3, 9, 15},
		{4, 10, 5},
	}
	for _, t := range triples {
		encode3(&b, final[t[0]], final[t[1]], final[t[2]])
	}
	encode1(&b, final[11])
	return b.String()
}

func encode3(b *strings.Builder, a, bb, c byte) {
	v := uint32(a)<<16 | uint32(bb)<<8 | uint32(c)
	for i := 0; i < 4; i++ {
		b.WriteByte(itoa64[v&0x3f])
		v >>= 6
	}
}

func encode1(b *strings.Builder, a byte) {
	v := uint32(a)
	for i := 0; i < 2; i++ {
		b.WriteByte(itoa64[v&0x3f])
		v >>= 6
	}
}
