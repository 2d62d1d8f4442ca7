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

// These tests verify that credentials can be read from the environment, from
// .env files, and from plain or fernet-encrypted credential files.
package auth

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"

	"github.com/kbase/studyscan/scantest"
)

// runs setup, runs all tests, and does breakdown
func TestMain(m *testing.M) {
	setup()
	status := m.Run()
	breakdown()
	os.Exit(status)
}

// Fernet encryption/decryption key
var TestKey fernet.Key

// temporary testing directory
var TestDir string

func setup() {
	scantest.EnableDebugLogging()

	log.Print("Creating testing directory...\n")
	var err error
	TestDir, err = os.MkdirTemp(os.TempDir(), "studyscan-auth-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err)
	}
	if err = TestKey.Generate(); err != nil {
		log.Panicf("Couldn't generate fernet key: %s", err)
	}
}

func breakdown() {
	if TestDir != "" {
		log.Printf("Deleting testing directory %s...\n", TestDir)
		os.RemoveAll(TestDir)
	}
}

// writes the given content to a file in the testing directory
func writeTestFile(t *testing.T, name string, content []byte) string {
	path := filepath.Join(TestDir, name)
	err := os.WriteFile(path, content, 0600)
	assert.Nil(t, err)
	return path
}

func TestCredentialFromEnvironment(t *testing.T) {
	assert := assert.New(t)
	t.Setenv(UserEnvVar, "jcarberry")
	t.Setenv(PasswordEnvVar, "")

	credential, err := CredentialFromEnvironment()
	assert.Nil(err)
	assert.Equal(Credential{User: "jcarberry", Password: ""}, credential)
}

func TestCredentialFromEnvironmentWithoutUser(t *testing.T) {
	assert := assert.New(t)
	t.Setenv(UserEnvVar, "")
	os.Unsetenv(UserEnvVar)

	_, err := CredentialFromEnvironment()
	assert.NotNil(err)
	assert.IsType(&MissingCredentialError{}, err)
	assert.Equal(UserEnvVar, err.(*MissingCredentialError).Variable)
}

func TestCredentialFromEnvironmentWithoutPassword(t *testing.T) {
	assert := assert.New(t)
	t.Setenv(UserEnvVar, "jcarberry")
	t.Setenv(PasswordEnvVar, "")
	os.Unsetenv(PasswordEnvVar)

	_, err := CredentialFromEnvironment()
	assert.IsType(&MissingCredentialError{}, err)
	assert.Equal(PasswordEnvVar, err.(*MissingCredentialError).Variable)
}

func TestLoadEnvFiles(t *testing.T) {
	assert := assert.New(t)
	t.Setenv(UserEnvVar, "")
	t.Setenv(PasswordEnvVar, "")
	os.Unsetenv(UserEnvVar)
	os.Unsetenv(PasswordEnvVar)

	envFile := writeTestFile(t, "test.env",
		[]byte("IMMPORT_USERNAME=dotenvuser\nIMMPORT_PASSWORD=dotenvpass\n"))
	err := LoadEnvFiles(filepath.Join(TestDir, "missing.env"), envFile)
	assert.Nil(err)

	credential, err := CredentialFromEnvironment()
	assert.Nil(err)
	assert.Equal("dotenvuser", credential.User)
	assert.Equal("dotenvpass", credential.Password)
}

func TestLoadEnvFilesWithNoFiles(t *testing.T) {
	err := LoadEnvFiles(filepath.Join(TestDir, "nope.env"))
	assert.Nil(t, err)
}

func TestReadPlainCredentialFile(t *testing.T) {
	assert := assert.New(t)
	path := writeTestFile(t, "plain.tsv", []byte("jcarberry\ts3cr3t\n"))

	credential, err := ReadCredentialFile(path, nil)
	assert.Nil(err)
	assert.Equal(Credential{User: "jcarberry", Password: "s3cr3t"}, credential)
}

func TestReadEncryptedCredentialFile(t *testing.T) {
	assert := assert.New(t)
	token, err := fernet.EncryptAndSign([]byte("jcarberry\ts3cr3t\n"), &TestKey)
	assert.Nil(err)
	path := writeTestFile(t, "encrypted.dat", token)

	credential, err := ReadCredentialFile(path, &TestKey)
	assert.Nil(err)
	assert.Equal(Credential{User: "jcarberry", Password: "s3cr3t"}, credential)
}

func TestReadEncryptedCredentialFileWithWrongKey(t *testing.T) {
	assert := assert.New(t)
	token, err := fernet.EncryptAndSign([]byte("jcarberry\ts3cr3t\n"), &TestKey)
	assert.Nil(err)
	path := writeTestFile(t, "wrongkey.dat", token)

	var otherKey fernet.Key
	assert.Nil(otherKey.Generate())
	_, err = ReadCredentialFile(path, &otherKey)
	assert.IsType(&InvalidCredentialFileError{}, err)
}

func TestReadMalformedCredentialFile(t *testing.T) {
	assert := assert.New(t)

	path := writeTestFile(t, "toomany.tsv", []byte("a\tb\tc\n"))
	_, err := ReadCredentialFile(path, nil)
	assert.IsType(&InvalidCredentialFileError{}, err)

	path = writeTestFile(t, "empty.tsv", []byte(""))
	_, err = ReadCredentialFile(path, nil)
	assert.IsType(&InvalidCredentialFileError{}, err)

	path = writeTestFile(t, "tworecords.tsv", []byte("a\tb\nc\td\n"))
	_, err = ReadCredentialFile(path, nil)
	assert.IsType(&InvalidCredentialFileError{}, err)

	_, err = ReadCredentialFile(filepath.Join(TestDir, "nonexistent.tsv"), nil)
	assert.NotNil(err)
}

func TestLoadCredentialFromEncryptedFile(t *testing.T) {
	assert := assert.New(t)
	token, err := fernet.EncryptAndSign([]byte("fileuser\tfilepass"), &TestKey)
	assert.Nil(err)
	path := writeTestFile(t, "load.dat", token)
	t.Setenv(CredentialKeyEnvVar, TestKey.Encode())

	credential, err := LoadCredential(path)
	assert.Nil(err)
	assert.Equal(Credential{User: "fileuser", Password: "filepass"}, credential)
}

func TestLoadCredentialFromEnvironment(t *testing.T) {
	assert := assert.New(t)
	t.Setenv(UserEnvVar, "envuser")
	t.Setenv(PasswordEnvVar, "envpass")

	credential, err := LoadCredential("")
	assert.Nil(err)
	assert.Equal(Credential{User: "envuser", Password: "envpass"}, credential)
}

func TestMissingCredentialError(t *testing.T) {
	err := MissingCredentialError{Variable: UserEnvVar}
	assert.Equal(t, "No credential was provided (IMMPORT_USERNAME is not set)", err.Error())
}

func TestInvalidCredentialFileError(t *testing.T) {
	err := InvalidCredentialFileError{Path: "/tmp/creds", Message: "bad"}
	assert.Equal(t, "Invalid credential file '/tmp/creds': bad", err.Error())
}
