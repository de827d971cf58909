// Package signature creates and verifies PS3.15 Digital Signature
// sequences embedded at tag (0400,0561) of a data_set.
package signature

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/binary"
	"fmt"
	"sort"
	"time"

	"go.mozilla.org/pkcs7"

	"github.com/caio-sobreiro/pacs/dicom"
	pacserrors "github.com/caio-sobreiro/pacs/errors"
)

// Algorithm selects the MAC hash used to digest the signed tags before
// the private key signs the digest.
type Algorithm int

const (
	SHA256 Algorithm = iota
	SHA384
	SHA512
)

// macAlgorithmUIDs are the NIST hash-function OIDs used as the
// signature sequence's MAC Algorithm UID (0400,0015).
var macAlgorithmUIDs = map[Algorithm]string{
	SHA256: "2.16.840.1.101.3.4.2.1",
	SHA384: "2.16.840.1.101.3.4.2.2",
	SHA512: "2.16.840.1.101.3.4.2.3",
}

func (a Algorithm) hash() crypto.Hash {
	switch a {
	case SHA384:
		return crypto.SHA384
	case SHA512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

// Tags at and under group 0x0400 carry signature metadata itself and are
// never included in the set of tags a signature covers.
const signatureGroup = 0x0400

var (
	tagDigitalSignaturesSQ = dicom.Tag{Group: 0x0400, Element: 0x0561}
	tagSignatureUID         = dicom.Tag{Group: 0x0400, Element: 0x0100}
	tagDigitalSignatureDT   = dicom.Tag{Group: 0x0400, Element: 0x0105}
	tagCertificateType      = dicom.Tag{Group: 0x0400, Element: 0x0110}
	tagCertificateData      = dicom.Tag{Group: 0x0400, Element: 0x0115}
	tagMACAlgorithm         = dicom.Tag{Group: 0x0400, Element: 0x0015}
	tagDataElementsSigned   = dicom.Tag{Group: 0x0400, Element: 0x0020}
	tagSignature            = dicom.Tag{Group: 0x0400, Element: 0x0120}
)

// SignRequest describes what to sign and with which identity. Tags nil
// means "every tag outside group 0x0400, ascending" per the default
// signing scope.
type SignRequest struct {
	Tags        []dicom.Tag
	Certificate *x509.Certificate
	PrivateKey  crypto.Signer
	Algorithm   Algorithm
	Root        string // UID root; defaults to defaultRoot
}

// Sign computes a PS3.15 digital signature over req's tags (or every
// non-(0400,*) tag if req.Tags is nil) and appends it to ds's digital
// signatures sequence.
func Sign(ds *dicom.DataSet, req SignRequest) error {
	if req.Certificate == nil || req.PrivateKey == nil {
		return pacserrors.NewSignatureError("invalid", "signing requires a certificate and private key")
	}

	tags := req.Tags
	if tags == nil {
		tags = signableTags(ds)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Less(tags[j]) })

	serialized := serialize(ds, tags)
	mac := digest(req.Algorithm, serialized)

	signedData, err := pkcs7.NewSignedData(mac)
	if err != nil {
		return pacserrors.NewSignatureError("invalid", fmt.Sprintf("build signed data: %v", err))
	}
	if err := signedData.AddSigner(req.Certificate, req.PrivateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return pacserrors.NewSignatureError("invalid", fmt.Sprintf("add signer: %v", err))
	}
	signedData.Detach()
	sig, err := signedData.Finish()
	if err != nil {
		return pacserrors.NewSignatureError("invalid", fmt.Sprintf("finish signature: %v", err))
	}

	item := dicom.NewDataSet()
	item.AddString(tagSignatureUID, dicom.VR_UI, newSignatureUID(req.Root))
	item.AddString(tagDigitalSignatureDT, "DT", time.Now().UTC().Format("20060102150405"))
	item.AddString(tagCertificateType, dicom.VR_CS, "X509_1993_SIG")
	item.Add(&dicom.Element{Tag: tagCertificateData, VR: "OB", Value: req.Certificate.Raw})
	item.AddString(tagMACAlgorithm, dicom.VR_UI, macAlgorithmUIDs[req.Algorithm])
	item.AddString(tagDataElementsSigned, "AT", encodeTagList(tags))
	item.Add(&dicom.Element{Tag: tagSignature, VR: "OB", Value: sig})

	appendSignatureItem(ds, item)
	return nil
}

// VerifyResult is the outcome of Verify/VerifyWithTrust.
type VerifyResult string

const (
	Valid           VerifyResult = "valid"
	Invalid         VerifyResult = "invalid"
	Expired         VerifyResult = "expired"
	UntrustedSigner VerifyResult = "untrusted_signer"
	Revoked         VerifyResult = "revoked"
	NoSignature     VerifyResult = "no_signature"
)

// Verify checks the most recently appended digital signature on ds. It
// refuses any certificate that is not self-signed — callers that accept
// non-self-signed certificates must call VerifyWithTrust with an
// explicit trust store.
func Verify(ds *dicom.DataSet) (VerifyResult, error) {
	return VerifyWithTrust(ds, nil)
}

// VerifyWithTrust checks the most recently appended digital signature on
// ds. A nil trust pool requires the embedded certificate to be
// self-signed; a non-nil pool requires the certificate to chain to it.
func VerifyWithTrust(ds *dicom.DataSet, trust *x509.CertPool) (VerifyResult, error) {
	item, ok := latestSignatureItem(ds)
	if !ok {
		return NoSignature, nil
	}

	cert, err := x509.ParseCertificate(bytesOf(item, tagCertificateData))
	if err != nil {
		return Invalid, pacserrors.NewSignatureError("invalid", fmt.Sprintf("parse certificate: %v", err))
	}

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return Expired, pacserrors.NewSignatureError("expired", "certificate outside its validity window")
	}

	if trust == nil {
		if err := cert.CheckSignatureFrom(cert); err != nil {
			return UntrustedSigner, pacserrors.NewSignatureError("untrusted_signer", "certificate is not self-signed; call VerifyWithTrust for a trust store")
		}
	} else if _, err := cert.Verify(x509.VerifyOptions{Roots: trust}); err != nil {
		return UntrustedSigner, pacserrors.NewSignatureError("untrusted_signer", fmt.Sprintf("certificate chain verification failed: %v", err))
	}

	tags := decodeTagList(item.GetString(tagDataElementsSigned))
	serialized := serialize(ds, tags)
	algorithm := algorithmForUID(item.GetString(tagMACAlgorithm))
	mac := digest(algorithm, serialized)

	p7, err := pkcs7.Parse(bytesOf(item, tagSignature))
	if err != nil {
		return Invalid, pacserrors.NewSignatureError("invalid", fmt.Sprintf("parse signature envelope: %v", err))
	}
	p7.Content = mac
	if err := p7.Verify(); err != nil {
		return Invalid, pacserrors.NewSignatureError("invalid", fmt.Sprintf("signature verification failed: %v", err))
	}

	return Valid, nil
}

func signableTags(ds *dicom.DataSet) []dicom.Tag {
	var out []dicom.Tag
	for _, e := range ds.Elements() {
		if e.Tag.Group == signatureGroup {
			continue
		}
		out = append(out, e.Tag)
	}
	return out
}

func serialize(ds *dicom.DataSet, tags []dicom.Tag) []byte {
	wanted := make(map[dicom.Tag]struct{}, len(tags))
	for _, t := range tags {
		wanted[t] = struct{}{}
	}

	var buf bytes.Buffer
	for _, e := range ds.Elements() {
		if _, ok := wanted[e.Tag]; !ok {
			continue
		}
		var hdr [4]byte
		binary.LittleEndian.PutUint16(hdr[0:2], e.Tag.Group)
		binary.LittleEndian.PutUint16(hdr[2:4], e.Tag.Element)
		buf.Write(hdr[:])
		buf.Write(e.Value)
	}
	return buf.Bytes()
}

func digest(algorithm Algorithm, data []byte) []byte {
	switch algorithm {
	case SHA384:
		sum := sha512.Sum384(data)
		return sum[:]
	case SHA512:
		sum := sha512.Sum512(data)
		return sum[:]
	default:
		sum := sha256.Sum256(data)
		return sum[:]
	}
}

func algorithmForUID(uid string) Algorithm {
	for alg, u := range macAlgorithmUIDs {
		if u == uid {
			return alg
		}
	}
	return SHA256
}

// encodeTagList/decodeTagList round-trip a tag list through the AT
// (4 bytes per tag) value representation so it can be stored as a
// single data element (0400,0020) rather than a nested sequence.
func encodeTagList(tags []dicom.Tag) string {
	var buf bytes.Buffer
	for _, t := range tags {
		var raw [4]byte
		binary.LittleEndian.PutUint16(raw[0:2], t.Group)
		binary.LittleEndian.PutUint16(raw[2:4], t.Element)
		buf.Write(raw[:])
	}
	return buf.String()
}

func decodeTagList(raw string) []dicom.Tag {
	b := []byte(raw)
	out := make([]dicom.Tag, 0, len(b)/4)
	for i := 0; i+4 <= len(b); i += 4 {
		out = append(out, dicom.Tag{
			Group:   binary.LittleEndian.Uint16(b[i : i+2]),
			Element: binary.LittleEndian.Uint16(b[i+2 : i+4]),
		})
	}
	return out
}

// appendSignatureItem appends item to ds's digital signatures sequence,
// creating the sequence if absent. The sequence element is replaced by a
// new one holding the existing items followed by item, so prior
// signatures are kept and no existing item is mutated in place.
func appendSignatureItem(ds *dicom.DataSet, item *dicom.DataSet) {
	existing, ok := ds.Get(tagDigitalSignaturesSQ)
	items := []*dicom.DataSet{item}
	if ok {
		items = append(append([]*dicom.DataSet{}, existing.Items...), item)
	}
	ds.Add(&dicom.Element{Tag: tagDigitalSignaturesSQ, VR: dicom.VR_SQ, Items: items})
}

func bytesOf(ds *dicom.DataSet, tag dicom.Tag) []byte {
	e, ok := ds.Get(tag)
	if !ok {
		return nil
	}
	return e.Value
}

func latestSignatureItem(ds *dicom.DataSet) (*dicom.DataSet, bool) {
	e, ok := ds.Get(tagDigitalSignaturesSQ)
	if !ok || len(e.Items) == 0 {
		return nil, false
	}
	return e.Items[len(e.Items)-1], true
}
