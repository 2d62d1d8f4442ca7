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

package databases

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSecureHttpClient(t *testing.T) {
	client := SecureHttpClient(time.Second * 10)
	assert.Equal(t, time.Second*10, client.Timeout)
	assert.NotNil(t, client.Transport)

	secureOriginal := &http.Request{
		URL: &url.URL{Scheme: "https", Host: "www.immport.org", Path: "/"},
	}
	secureTarget := &http.Request{
		URL: &url.URL{Scheme: "https", Host: "redirect.org", Path: "/"},
	}
	insecureTarget := &http.Request{
		URL: &url.URL{Scheme: "http", Host: "redirect.org", Path: "/auth/token"},
	}

	// secure -> secure: the redirect response itself is returned
	err := client.CheckRedirect(secureTarget, []*http.Request{secureOriginal})
	assert.Equal(t, http.ErrUseLastResponse, err)

	// secure -> insecure: refused
	err = client.CheckRedirect(insecureTarget, []*http.Request{secureOriginal})
	assert.IsType(t, &DowngradedRedirectError{}, err)
	dre := err.(*DowngradedRedirectError)
	assert.Equal(t, "redirect.org/auth/token", dre.Endpoint)
}

func TestSecureHttpClientWithoutTimeout(t *testing.T) {
	client := SecureHttpClient(0)
	assert.Equal(t, time.Duration(0), client.Timeout)
}
