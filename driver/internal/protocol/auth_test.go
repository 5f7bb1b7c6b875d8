// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"golang.org/x/crypto/pbkdf2"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

func TestAuthPrmsRoundTrip(t *testing.T) {
	smallPrm := bytes.Repeat([]byte{42}, smallPrmMaxSize)
	bigPrm := bytes.Repeat([]byte{42}, smallPrmMaxSize+1) // forces two byte big endian size

	prms := &authPrms{}
	prms.addCESU8String("logonname")
	prms.addBytes(smallPrm)
	prms.addBytes(bigPrm)
	subPrms := prms.addPrms()
	subPrms.addBytes([]byte{1, 2, 3})

	buf := &bytes.Buffer{}
	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	if err := prms.encode(enc); err != nil {
		t.Fatal(err)
	}
	if err := enc.Error(); err != nil {
		t.Fatal(err)
	}
	if size := prms.size(); size != buf.Len() {
		t.Fatalf("prms size %d - expected %d", size, buf.Len())
	}

	d := newAuthDecoder(encoding.NewDecoder(buf, cesu8DecoderFn))
	if err := d.numPrm(4); err != nil {
		t.Fatal(err)
	}
	logonname, err := d.cesu8String()
	if err != nil {
		t.Fatal(err)
	}
	if logonname != "logonname" {
		t.Fatalf("logonname %s - expected logonname", logonname)
	}
	b, err := d.bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, smallPrm) {
		t.Fatal("small parameter mismatch")
	}
	b, err = d.bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, bigPrm) {
		t.Fatal("big parameter mismatch")
	}
	d.subSize()
	if err := d.numPrm(1); err != nil {
		t.Fatal(err)
	}
	b, err = d.bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatal("sub parameter mismatch")
	}
}

func TestClientProof(t *testing.T) {
	key := _sha256([]byte("key"))
	salt := bytes.Repeat([]byte{1}, saltSize)
	serverChallenge := bytes.Repeat([]byte{2}, serverChallengeSize)
	clntChallenge := bytes.Repeat([]byte{3}, clientChallengeSize)

	proof := clientProof(key, salt, serverChallenge, clntChallenge)
	if len(proof) != clientProofSize {
		t.Fatalf("proof size %d - expected %d", len(proof), clientProofSize)
	}

	// the signature must be recoverable from proof and key
	sig := _hmac(_sha256(key), salt, serverChallenge, clntChallenge)
	for i := range proof {
		if proof[i]^key[i] != sig[i] {
			t.Fatal("proof does not xor to signature")
		}
	}
}

// authServer mimics the server side of the authentication handshake.
type authServer struct {
	t               *testing.T
	username        string
	password        string
	salt            []byte
	serverChallenge []byte
	rounds          uint32 // zero: SCRAMSHA256, else SCRAMPBKDF2SHA256
}

func newAuthServer(t *testing.T, username, password string, rounds uint32) *authServer {
	salt := make([]byte, saltSize)
	serverChallenge := make([]byte, serverChallengeSize)
	rand.Read(salt)
	rand.Read(serverChallenge)
	return &authServer{t: t, username: username, password: password, salt: salt, serverChallenge: serverChallenge, rounds: rounds}
}

func (s *authServer) methodName() string {
	if s.rounds != 0 {
		return MnSCRAMPBKDF2SHA256
	}
	return MnSCRAMSHA256
}

func (s *authServer) key() []byte {
	if s.rounds != 0 {
		return _sha256(pbkdf2.Key([]byte(s.password), s.salt, int(s.rounds), clientProofSize, sha256.New))
	}
	return _sha256(_hmac([]byte(s.password), s.salt))
}

// initReq decodes the init request and returns the client challenge of the
// server method. The client may offer more than one method. Errors are
// reported via t.Error: the server helpers run in separate goroutines in
// the session tests.
func (s *authServer) initReq(buf *bytes.Buffer) []byte {
	dec := encoding.NewDecoder(buf, cesu8DecoderFn)

	numPrm := int(dec.Int16()) // logonname plus name, challenge per method
	if numPrm < 3 || numPrm%2 != 1 {
		s.t.Errorf("number of parameters %d - expected odd number >= 3", numPrm)
		return nil
	}
	d := newAuthDecoder(dec)
	logonname, err := d.cesu8String()
	if err != nil {
		s.t.Error(err)
		return nil
	}
	if logonname != s.username {
		s.t.Errorf("logonname %s - expected %s", logonname, s.username)
		return nil
	}
	var clntChallenge []byte
	for i := 0; i < (numPrm-1)/2; i++ {
		methodName, err := d.string()
		if err != nil {
			s.t.Error(err)
			return nil
		}
		challenge, err := d.bytes()
		if err != nil {
			s.t.Error(err)
			return nil
		}
		if methodName == s.methodName() {
			clntChallenge = challenge
		}
	}
	if clntChallenge == nil {
		s.t.Errorf("method %s not offered", s.methodName())
		return nil
	}
	if len(clntChallenge) != clientChallengeSize {
		s.t.Errorf("client challenge size %d - expected %d", len(clntChallenge), clientChallengeSize)
		return nil
	}
	return clntChallenge
}

// initRep encodes the init reply selecting the server method.
func (s *authServer) initRep(buf *bytes.Buffer) {
	prms := &authPrms{}
	prms.addString(s.methodName())
	subPrms := prms.addPrms()
	subPrms.addBytes(s.salt)
	subPrms.addBytes(s.serverChallenge)
	if s.rounds != 0 {
		rounds := make([]byte, uint32Size)
		rounds[0] = byte(s.rounds >> 24)
		rounds[1] = byte(s.rounds >> 16)
		rounds[2] = byte(s.rounds >> 8)
		rounds[3] = byte(s.rounds)
		subPrms.addBytes(rounds)
	}

	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	if err := prms.encode(enc); err != nil {
		s.t.Error(err)
	}
}

// finalReq decodes the final request and returns the client proof.
func (s *authServer) finalReq(buf *bytes.Buffer) []byte {
	d := newAuthDecoder(encoding.NewDecoder(buf, cesu8DecoderFn))

	if err := d.numPrm(3); err != nil {
		s.t.Error(err)
		return nil
	}
	if _, err := d.cesu8String(); err != nil { // logonname
		s.t.Error(err)
		return nil
	}
	if _, err := d.string(); err != nil { // method name
		s.t.Error(err)
		return nil
	}
	d.subSize()
	if err := d.numPrm(1); err != nil {
		s.t.Error(err)
		return nil
	}
	proof, err := d.bytes()
	if err != nil {
		s.t.Error(err)
		return nil
	}
	return proof
}

// finalRep encodes the final reply including the server verifier.
func (s *authServer) finalRep(buf *bytes.Buffer) {
	prms := &authPrms{}
	prms.addString(s.methodName())
	subPrms := prms.addPrms()
	subPrms.addBytes(_hmac(s.key(), s.salt)) // server verifier

	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	if err := prms.encode(enc); err != nil {
		s.t.Error(err)
	}
}

func testHandshake(t *testing.T, rounds uint32) {
	const username = "kilroy"
	const password = "secret"

	server := newAuthServer(t, username, password, rounds)

	a := newAuth(username)
	if rounds != 0 {
		a.addSCRAMPBKDF2SHA256(username, password)
	} else {
		a.addSCRAMSHA256(username, password)
	}

	buf := &bytes.Buffer{}

	// authenticate round trip
	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	initReq := authInitReq{a: a}
	if err := initReq.encode(enc); err != nil {
		t.Fatal(err)
	}
	if size := initReq.size(); size != buf.Len() {
		t.Fatalf("init request size %d - expected %d", size, buf.Len())
	}
	clntChallenge := server.initReq(buf)

	buf.Reset()
	server.initRep(buf)
	initRep := &authInitRep{a: a}
	if err := initRep.decode(encoding.NewDecoder(buf, cesu8DecoderFn), nil); err != nil {
		t.Fatal(err)
	}
	if a.method == nil || a.method.methodName() != server.methodName() {
		t.Fatalf("selected method %v - expected %s", a.method, server.methodName())
	}

	// connect round trip
	buf.Reset()
	enc = encoding.NewEncoder(buf, cesu8EncoderFn)
	finalReq := authFinalReq{a: a}
	if err := finalReq.encode(enc); err != nil {
		t.Fatal(err)
	}
	proof := server.finalReq(buf)

	// server side proof verification
	expected := clientProof(server.key(), server.salt, server.serverChallenge, clntChallenge)
	if !bytes.Equal(proof, expected) {
		t.Fatal("client proof verification failed")
	}

	buf.Reset()
	server.finalRep(buf)
	finalRep := &authFinalRep{a: a}
	if err := finalRep.decode(encoding.NewDecoder(buf, cesu8DecoderFn), nil); err != nil {
		t.Fatal(err)
	}
}

func TestSCRAMSHA256Handshake(t *testing.T)       { testHandshake(t, 0) }
func TestSCRAMPBKDF2SHA256Handshake(t *testing.T) { testHandshake(t, 100) }

func TestWrongPasswordProof(t *testing.T) {
	const username = "kilroy"

	server := newAuthServer(t, username, "secret", 0)

	a := newAuth(username)
	a.addSCRAMSHA256(username, "wrong")

	buf := &bytes.Buffer{}
	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	if err := (authInitReq{a: a}).encode(enc); err != nil {
		t.Fatal(err)
	}
	clntChallenge := server.initReq(buf)

	buf.Reset()
	server.initRep(buf)
	if err := (&authInitRep{a: a}).decode(encoding.NewDecoder(buf, cesu8DecoderFn), nil); err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	enc = encoding.NewEncoder(buf, cesu8EncoderFn)
	if err := (authFinalReq{a: a}).encode(enc); err != nil {
		t.Fatal(err)
	}
	proof := server.finalReq(buf)

	expected := clientProof(server.key(), server.salt, server.serverChallenge, clntChallenge)
	if bytes.Equal(proof, expected) {
		t.Fatal("proof of wrong password must not verify")
	}
}

func TestAuthMethodMismatch(t *testing.T) {
	a := newAuth("kilroy")
	a.addSCRAMSHA256("kilroy", "secret")

	// server replies with an unsupported method
	prms := &authPrms{}
	prms.addString("SAML")
	subPrms := prms.addPrms()
	subPrms.addBytes([]byte{})

	buf := &bytes.Buffer{}
	enc := encoding.NewEncoder(buf, cesu8EncoderFn)
	if err := prms.encode(enc); err != nil {
		t.Fatal(err)
	}
	if err := (&authInitRep{a: a}).decode(encoding.NewDecoder(buf, cesu8DecoderFn), nil); err == nil {
		t.Fatal("error expected for unsupported authentication method")
	}
}
