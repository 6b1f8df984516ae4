package cryptox

// FieldPolicy names the record fields that must be encrypted at rest.
// The set is supplied from configuration rather than hard-coded, so policy
// changes do not require code changes. Fields not covered by the policy pass
// through unencrypted.
type FieldPolicy struct {
	sensitive map[string]struct{}
}

// NewFieldPolicy builds a policy from the given field names.
func NewFieldPolicy(fields []string) FieldPolicy {
	m := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		m[f] = struct{}{}
	}
	return FieldPolicy{sensitive: m}
}

// DefaultSensitiveFields is the baseline PHI column set for patient records.
func DefaultSensitiveFields() []string {
	return []string{
		"ssn",
		"date_of_birth",
		"phone",
		"address",
		"medical_history",
		"medications",
		"allergies",
		"conditions",
	}
}

// IsSensitive reports whether the named field must be encrypted.
func (p FieldPolicy) IsSensitive(field string) bool {
	_, ok := p.sensitive[field]
	return ok
}

// EncryptRecord applies the policy to a flat field map: sensitive fields are
// sealed under a context derived from recordID and the field name, the rest
// are returned unchanged in the plain map.
func (c *FieldCipher) EncryptRecord(recordID string, fields map[string]string, p FieldPolicy) (map[string]string, map[string]EncryptedField, error) {
	plain := make(map[string]string)
	enc := make(map[string]EncryptedField)
	for name, value := range fields {
		if !p.IsSensitive(name) {
			plain[name] = value
			continue
		}
		ef, err := c.Encrypt(FieldContext(recordID, name), value)
		if err != nil {
			return nil, nil, err
		}
		enc[name] = ef
	}
	return plain, enc, nil
}

// DecryptRecord reverses EncryptRecord. Fields that fail authentication come
// back as empty strings per the cipher's fail-closed contract.
func (c *FieldCipher) DecryptRecord(recordID string, plain map[string]string, enc map[string]EncryptedField) map[string]string {
	out := make(map[string]string, len(plain)+len(enc))
	for name, value := range plain {
		out[name] = value
	}
	for name, ef := range enc {
		out[name] = c.Decrypt(FieldContext(recordID, name), ef)
	}
	return out
}
