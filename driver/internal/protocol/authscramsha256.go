// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

const (
	clientChallengeSize = 64
	serverChallengeSize = 48
	saltSize            = 16
	clientProofSize     = 32
)

func checkSalt(salt []byte) error {
	if len(salt) != saltSize {
		return fmt.Errorf("invalid salt size %d - expected %d", len(salt), saltSize)
	}
	return nil
}

func checkServerChallenge(serverChallenge []byte) error {
	if len(serverChallenge) != serverChallengeSize {
		return fmt.Errorf("invalid server challenge size %d - expected %d", len(serverChallenge), serverChallengeSize)
	}
	return nil
}

func clientChallenge() []byte {
	b := make([]byte, clientChallengeSize)
	if _, err := rand.Read(b); err != nil {
		panic(err) // should never happen
	}
	return b
}

func _sha256(p []byte) []byte {
	hash := sha256.New()
	hash.Write(p)
	return hash.Sum(nil)
}

func _hmac(key []byte, prms ...[]byte) []byte {
	hash := hmac.New(sha256.New, key)
	for _, p := range prms {
		hash.Write(p)
	}
	return hash.Sum(nil)
}

func clientProof(key, salt, serverChallenge, clientChallenge []byte) []byte {
	sig := _hmac(_sha256(key), salt, serverChallenge, clientChallenge)
	proof := make([]byte, clientProofSize)
	for i, s := range sig {
		proof[i] = s ^ key[i]
	}
	return proof
}

// authSCRAMSHA256 implements the salted challenge response authentication
// mechanism with a single sha256 round for the password key.
type authSCRAMSHA256 struct {
	username, password    string
	clientChallenge       []byte
	salt, serverChallenge []byte
}

var _ authMethod = (*authSCRAMSHA256)(nil)

func newAuthSCRAMSHA256(username, password string) *authSCRAMSHA256 {
	return &authSCRAMSHA256{username: username, password: password, clientChallenge: clientChallenge()}
}

func (a *authSCRAMSHA256) String() string {
	return fmt.Sprintf("method %s username %s", a.methodName(), a.username)
}

func (a *authSCRAMSHA256) methodName() string { return MnSCRAMSHA256 }

func (a *authSCRAMSHA256) prepareInitReq(prms *authPrms) {
	prms.addBytes(a.clientChallenge)
}

func (a *authSCRAMSHA256) initRepDecode(d *authDecoder) error {
	d.subSize() // sub parameter block
	if err := d.numPrm(2); err != nil {
		return err
	}
	var err error
	if a.salt, err = d.bytes(); err != nil {
		return err
	}
	if err := checkSalt(a.salt); err != nil {
		return err
	}
	if a.serverChallenge, err = d.bytes(); err != nil {
		return err
	}
	return checkServerChallenge(a.serverChallenge)
}

func (a *authSCRAMSHA256) prepareFinalReq(prms *authPrms) error {
	key := _sha256(_hmac([]byte(a.password), a.salt))
	proof := clientProof(key, a.salt, a.serverChallenge, a.clientChallenge)

	subPrms := prms.addPrms()
	subPrms.addBytes(proof)
	return nil
}

func (a *authSCRAMSHA256) finalRepDecode(d *authDecoder) error {
	d.subSize() // sub parameter block
	if err := d.numPrm(1); err != nil {
		return err
	}
	// server verifier, not validated
	_, err := d.bytes()
	return err
}
