// Package tlspin builds TLS client configurations that trust only a pinned certificate authority.
package tlspin

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/glorpus-work/fetchcache/pkg/errors"
)

// Options tunes the pinned configuration.
type Options struct {
	// ServerName overrides the name verified against the leaf certificate.
	ServerName string
	// Now returns the time used for validity checks. Default: time.Now.
	Now func() time.Time
}

// Config returns a client TLS configuration that accepts only chains ending in one of the
// CA certificates in pemCA. Every presented certificate must be within its validity period.
func Config(pemCA []byte, opts Options) (*tls.Config, error) {
	cas, err := parseCertificates(pemCA)
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	pool := x509.NewCertPool()
	for _, ca := range cas {
		pool.AddCert(ca)
	}

	p := &pinner{cas: cas, now: opts.Now}
	return &tls.Config{
		MinVersion:            tls.VersionTLS12,
		RootCAs:               pool,
		ServerName:            opts.ServerName,
		Time:                  opts.Now,
		VerifyPeerCertificate: p.verify,
	}, nil
}

// ConfigFromFile reads the pinned CA from a PEM file.
func ConfigFromFile(path string, opts Options) (*tls.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read pinned CA %s", path)
	}
	return Config(data, opts)
}

func parseCertificates(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse pinned certificate")
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.ErrNoPinnedCertificate
	}
	return certs, nil
}

type pinner struct {
	cas []*x509.Certificate
	now func() time.Time
}

// verify checks the chain as presented by the server: each certificate is valid now,
// each is signed by its successor, and the last is a pinned CA or signed by one.
func (p *pinner) verify(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errors.Wrap(errors.ErrCertificateChain, "server presented no certificates")
	}

	chain := make([]*x509.Certificate, 0, len(rawCerts))
	for _, raw := range rawCerts {
		cert, err := x509.ParseCertificate(raw)
		if err != nil {
			return errors.Join(errors.ErrCertificateChain, err)
		}
		chain = append(chain, cert)
	}

	now := p.now()
	for _, cert := range chain {
		if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
			return errors.Wrapf(errors.ErrCertificateChain, "certificate %q is not valid at %s", cert.Subject.CommonName, now.Format(time.RFC3339))
		}
	}

	for i := 0; i < len(chain)-1; i++ {
		if err := chain[i].CheckSignatureFrom(chain[i+1]); err != nil {
			return errors.Join(errors.ErrCertificateChain, fmt.Errorf("certificate %q: %w", chain[i].Subject.CommonName, err))
		}
	}

	last := chain[len(chain)-1]
	for _, ca := range p.cas {
		if bytes.Equal(last.Raw, ca.Raw) {
			return nil
		}
		if last.CheckSignatureFrom(ca) == nil {
			return nil
		}
	}
	return errors.Wrapf(errors.ErrCertificateChain, "certificate %q is not signed by the pinned CA", last.Subject.CommonName)
}
