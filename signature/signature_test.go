package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/caio-sobreiro/pacs/dicom"
)

func selfSignedCert(t *testing.T) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-signer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:         true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert, key
}

func sampleDataSet() *dicom.DataSet {
	ds := dicom.NewDataSet()
	ds.AddString(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.VR_PN, "Doe^Jane")
	ds.AddString(dicom.Tag{Group: 0x0010, Element: 0x0020}, dicom.VR_SH, "PAT001")
	return ds
}

func TestSignThenVerifyYieldsValid(t *testing.T) {
	cert, key := selfSignedCert(t)
	ds := sampleDataSet()

	err := Sign(ds, SignRequest{Certificate: cert, PrivateKey: key, Algorithm: SHA256})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	result, err := Verify(ds)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result != Valid {
		t.Fatalf("expected Valid, got %s", result)
	}
}

func TestVerifyDetectsTamperedValue(t *testing.T) {
	cert, key := selfSignedCert(t)
	ds := sampleDataSet()

	if err := Sign(ds, SignRequest{Certificate: cert, PrivateKey: key, Algorithm: SHA256}); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	ds.AddString(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.VR_PN, "Tampered^Name")

	result, err := Verify(ds)
	if err == nil {
		t.Fatalf("expected tampered data set to fail verification")
	}
	if result != Invalid {
		t.Fatalf("expected Invalid, got %s", result)
	}
}

func TestVerifyNoSignature(t *testing.T) {
	ds := sampleDataSet()
	result, err := Verify(ds)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result != NoSignature {
		t.Fatalf("expected NoSignature, got %s", result)
	}
}
