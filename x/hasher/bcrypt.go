// Salt encoding and key setup follow golang.org/x/crypto/bcrypt.
// Copyright 2011 The Go Authors. All rights reserved. BSD-style license.

package hasher

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/blowfish"
	"golang.org/x/exp/slices"
)

const (
	saltLen        = 16
	encodedSaltLen = 22
	encodedHashLen = 31
	maxPasswordLen = 72
	// "$2a$" + 2 digit cost + "$" + salt
	fullSaltLen = 7 + encodedSaltLen
)

var magicCipherData = []byte("OrpheanBeholderScryDoubt")

var supportedMinors = []byte{'a', 'b', 'y'}

const alphabet = "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var bcEncoding = base64.NewEncoding(alphabet)

var (
	errSaltFormat       = errors.New("malformed salt")
	errCostOutOfBounds  = errors.New("cost out of bounds")
	errUnsupportedMinor = errors.New("unsupported bcrypt version")
)

func encode(src []byte) string {
	s := bcEncoding.EncodeToString(src)
	for len(s) > 0 && s[len(s)-1] == '=' {
		s = s[:len(s)-1]
	}
	return s
}

func decode(src string) ([]byte, error) {
	if n := len(src) % 4; n != 0 {
		for i := 0; i < 4-n; i++ {
			src += "="
		}
	}
	return bcEncoding.DecodeString(src)
}

// significant returns the part of plaintext bcrypt keys on. Bytes past 72 never reach the cipher.
func significant(plaintext []byte) []byte {
	if len(plaintext) > maxPasswordLen {
		return plaintext[:maxPasswordLen]
	}
	return plaintext
}

func checkCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return errors.Wrapf(errCostOutOfBounds, "cost %d", cost)
	}
	return nil
}

func newSalt(cost int) (string, error) {
	err := checkCost(cost)
	if err != nil {
		return "", err
	}

	raw := make([]byte, saltLen)
	_, err = rand.Read(raw)
	if err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return fmt.Sprintf("$2a$%02d$%s", cost, encode(raw)), nil
}

type parsedSalt struct {
	prefix string
	cost   int
	salt   string
}

// parseSalt splits "$2a$10$<22 chars>" into its parts
func parseSalt(salt string) (parsedSalt, error) {
	if len(salt) != fullSaltLen {
		return parsedSalt{}, errSaltFormat
	}
	if salt[0] != '$' || salt[1] != '2' || salt[3] != '$' || salt[6] != '$' {
		return parsedSalt{}, errSaltFormat
	}
	if !slices.Contains(supportedMinors, salt[2]) {
		return parsedSalt{}, errUnsupportedMinor
	}

	cost, err := strconv.Atoi(salt[4:6])
	if err != nil {
		return parsedSalt{}, errSaltFormat
	}
	err = checkCost(cost)
	if err != nil {
		return parsedSalt{}, err
	}

	encoded := salt[7:]
	raw, err := decode(encoded)
	if err != nil || len(raw) != saltLen {
		return parsedSalt{}, errSaltFormat
	}

	return parsedSalt{
		prefix: salt[:7],
		cost:   cost,
		salt:   encoded,
	}, nil
}

func hashWithSalt(plaintext []byte, salt string) (string, error) {
	plaintext = significant(plaintext)

	p, err := parseSalt(salt)
	if err != nil {
		return "", err
	}

	csalt, err := decode(p.salt)
	if err != nil {
		return "", errSaltFormat
	}

	ckey := append(plaintext[:len(plaintext):len(plaintext)], 0)
	c, err := blowfish.NewSaltedCipher(ckey, csalt)
	if err != nil {
		return "", errors.Wrap(err, "failed to setup cipher")
	}

	rounds := uint64(1) << uint(p.cost)
	for i := uint64(0); i < rounds; i++ {
		blowfish.ExpandKey(ckey, c)
		blowfish.ExpandKey(csalt, c)
	}

	cipherData := make([]byte, len(magicCipherData))
	copy(cipherData, magicCipherData)
	for i := 0; i < len(cipherData); i += 8 {
		for j := 0; j < 64; j++ {
			c.Encrypt(cipherData[i:i+8], cipherData[i:i+8])
		}
	}

	hash := encode(cipherData[:len(cipherData)-1])
	if len(hash) != encodedHashLen {
		return "", errors.New("unexpected hash length")
	}

	return p.prefix + p.salt + hash, nil
}
