// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package auth

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/fernet/fernet-go"
	"github.com/joho/godotenv"
)

// environment variables consulted for credentials
const (
	UserEnvVar          = "IMMPORT_USERNAME"
	PasswordEnvVar      = "IMMPORT_PASSWORD"
	CredentialKeyEnvVar = "IMMPORT_CREDENTIAL_KEY"
)

// Loads variables from any of the given .env files that exist. Variables
// already present in the environment are left alone.
func LoadEnvFiles(filenames ...string) error {
	existing := make([]string, 0, len(filenames))
	for _, filename := range filenames {
		if _, err := os.Stat(filename); err == nil {
			existing = append(existing, filename)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	slog.Debug("Loading environment files", "files", existing)
	return godotenv.Load(existing...)
}

// Reads a credential from IMMPORT_USERNAME and IMMPORT_PASSWORD. Both must be
// set, though either may be empty.
func CredentialFromEnvironment() (Credential, error) {
	user, haveUser := os.LookupEnv(UserEnvVar)
	if !haveUser {
		return Credential{}, &MissingCredentialError{Variable: UserEnvVar}
	}
	password, havePassword := os.LookupEnv(PasswordEnvVar)
	if !havePassword {
		return Credential{}, &MissingCredentialError{Variable: PasswordEnvVar}
	}
	return Credential{User: user, Password: password}, nil
}

// Returns the fernet key in IMMPORT_CREDENTIAL_KEY, or nil if it isn't set.
func CredentialKeyFromEnvironment() (*fernet.Key, error) {
	encodedKey, found := os.LookupEnv(CredentialKeyEnvVar)
	if !found || encodedKey == "" {
		return nil, nil
	}
	return fernet.DecodeKey(encodedKey)
}

// Reads a credential file containing a single tab-delimited record:
// Username\tPassword
// If a key is given, the file content is a fernet token wrapping that record.
func ReadCredentialFile(path string, key *fernet.Key) (Credential, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Credential{}, err
	}

	plainText := content
	if key != nil {
		plainText = fernet.VerifyAndDecrypt(bytes.TrimSpace(content), 0, []*fernet.Key{key})
		if plainText == nil {
			return Credential{}, &InvalidCredentialFileError{
				Path:    path,
				Message: "could not decrypt with the given key",
			}
		}
	}

	reader := csv.NewReader(bytes.NewReader(plainText))
	reader.Comma = '\t'
	reader.FieldsPerRecord = 2
	reader.LazyQuotes = true

	record, err := reader.Read()
	if err != nil {
		message := err.Error()
		if errors.Is(err, io.EOF) {
			message = "no credential record found"
		}
		return Credential{}, &InvalidCredentialFileError{Path: path, Message: message}
	}
	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		return Credential{}, &InvalidCredentialFileError{
			Path:    path,
			Message: "expected exactly one credential record",
		}
	}
	return Credential{User: record[0], Password: record[1]}, nil
}

// Returns the credential for a run: from the given credential file if one is
// named, otherwise from the environment.
func LoadCredential(credentialFile string) (Credential, error) {
	if credentialFile == "" {
		return CredentialFromEnvironment()
	}
	key, err := CredentialKeyFromEnvironment()
	if err != nil {
		return Credential{}, err
	}
	return ReadCredentialFile(credentialFile, key)
}
