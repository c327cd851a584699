package tlspin

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

type keyPair struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
	der  []byte
}

func (k keyPair) pem() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: k.der})
}

func newCA(t *testing.T, name string) keyPair {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return keyPair{cert: cert, key: key, der: der}
}

func newLeaf(t *testing.T, ca keyPair, notAfter time.Time) keyPair {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.cert, &key.PublicKey, ca.key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return keyPair{cert: cert, key: key, der: der}
}

func startServer(t *testing.T, leaf keyPair) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pinned"))
	}))
	srv.TLS = &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{leaf.der}, PrivateKey: leaf.key, Leaf: leaf.cert}},
	}
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, cfg *tls.Config, url string) error {
	t.Helper()
	client := &http.Client{Transport: &http.Transport{TLSClientConfig: cfg}, Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func TestConfig_AcceptsPinnedCA(t *testing.T) {
	ca := newCA(t, "pinned root")
	srv := startServer(t, newLeaf(t, ca, time.Now().Add(time.Hour)))

	cfg, err := Config(ca.pem(), Options{})
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)

	assert.NoError(t, get(t, cfg, srv.URL))
}

func TestConfig_RejectsOtherCA(t *testing.T) {
	pinned := newCA(t, "pinned root")
	other := newCA(t, "other root")
	srv := startServer(t, newLeaf(t, other, time.Now().Add(time.Hour)))

	cfg, err := Config(pinned.pem(), Options{})
	require.NoError(t, err)

	err = get(t, cfg, srv.URL)
	require.Error(t, err)
	var verr *tls.CertificateVerificationError
	assert.ErrorAs(t, err, &verr)
}

func TestConfig_RejectsExpiredLeaf(t *testing.T) {
	ca := newCA(t, "pinned root")
	leaf := newLeaf(t, ca, time.Now().Add(time.Hour))
	later := func() time.Time { return time.Now().Add(2 * time.Hour) }

	cfg, err := Config(ca.pem(), Options{Now: later})
	require.NoError(t, err)

	err = cfg.VerifyPeerCertificate([][]byte{leaf.der}, nil)
	assert.ErrorIs(t, err, errors.ErrCertificateChain)
	assert.Contains(t, err.Error(), "is not valid at")
}

func TestVerify(t *testing.T) {
	ca := newCA(t, "pinned root")
	other := newCA(t, "other root")
	leaf := newLeaf(t, ca, time.Now().Add(time.Hour))
	foreign := newLeaf(t, other, time.Now().Add(time.Hour))

	cfg, err := Config(ca.pem(), Options{})
	require.NoError(t, err)

	tests := []struct {
		name    string
		chain   [][]byte
		wantErr bool
	}{
		{"leaf signed by pinned CA", [][]byte{leaf.der}, false},
		{"leaf followed by pinned CA", [][]byte{leaf.der, ca.der}, false},
		{"empty chain", nil, true},
		{"garbage certificate", [][]byte{[]byte("nope")}, true},
		{"leaf signed by other CA", [][]byte{foreign.der}, true},
		{"broken link", [][]byte{leaf.der, other.der}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cfg.VerifyPeerCertificate(tt.chain, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrCertificateChain)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_InvalidPEM(t *testing.T) {
	_, err := Config([]byte("not a pem"), Options{})
	assert.ErrorIs(t, err, errors.ErrNoPinnedCertificate)

	key := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("x")})
	_, err = Config(key, Options{})
	assert.ErrorIs(t, err, errors.ErrNoPinnedCertificate)

	bad := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("x")})
	_, err = Config(bad, Options{})
	assert.Error(t, err)
}

func TestConfigFromFile(t *testing.T) {
	ca := newCA(t, "pinned root")
	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, ca.pem(), 0o600))

	cfg, err := ConfigFromFile(path, Options{ServerName: "example.com"})
	require.NoError(t, err)
	assert.Equal(t, "example.com", cfg.ServerName)

	_, err = ConfigFromFile(filepath.Join(t.TempDir(), "missing.pem"), Options{})
	assert.Error(t, err)
}
