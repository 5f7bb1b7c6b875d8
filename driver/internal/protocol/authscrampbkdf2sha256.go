// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// authSCRAMPBKDF2SHA256 implements the salted challenge response
// authentication mechanism with a pbkdf2 derived password key. The number
// of key derivation rounds is announced by the server within the init
// reply.
type authSCRAMPBKDF2SHA256 struct {
	username, password    string
	clientChallenge       []byte
	salt, serverChallenge []byte
	rounds                uint32
}

var _ authMethod = (*authSCRAMPBKDF2SHA256)(nil)

func newAuthSCRAMPBKDF2SHA256(username, password string) *authSCRAMPBKDF2SHA256 {
	return &authSCRAMPBKDF2SHA256{username: username, password: password, clientChallenge: clientChallenge()}
}

func (a *authSCRAMPBKDF2SHA256) String() string {
	return fmt.Sprintf("method %s username %s", a.methodName(), a.username)
}

func (a *authSCRAMPBKDF2SHA256) methodName() string { return MnSCRAMPBKDF2SHA256 }

func (a *authSCRAMPBKDF2SHA256) prepareInitReq(prms *authPrms) {
	prms.addBytes(a.clientChallenge)
}

func (a *authSCRAMPBKDF2SHA256) initRepDecode(d *authDecoder) error {
	d.subSize() // sub parameter block
	if err := d.numPrm(3); err != nil {
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
	if err := checkServerChallenge(a.serverChallenge); err != nil {
		return err
	}
	if a.rounds, err = d.bigUint32(); err != nil {
		return err
	}
	return nil
}

func (a *authSCRAMPBKDF2SHA256) prepareFinalReq(prms *authPrms) error {
	key := _sha256(pbkdf2.Key([]byte(a.password), a.salt, int(a.rounds), clientProofSize, sha256.New))
	proof := clientProof(key, a.salt, a.serverChallenge, a.clientChallenge)

	subPrms := prms.addPrms()
	subPrms.addBytes(proof)
	return nil
}

func (a *authSCRAMPBKDF2SHA256) finalRepDecode(d *authDecoder) error {
	d.subSize() // sub parameter block
	if err := d.numPrm(1); err != nil {
		return err
	}
	// server verifier, not validated
	_, err := d.bytes()
	return err
}
