package pages

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
	root "github.com/vocdoni/checkout-demo"
)

func TestLoadEmbeddedAssets(t *testing.T) {
	c := qt.New(t)
	assets, err := fs.Sub(root.Assets, "assets")
	c.Assert(err, qt.IsNil)
	c.Assert(Load(assets), qt.IsNil)
	c.Assert(Available(), qt.Contains, CheckoutPage)
	c.Assert(Available(), qt.Contains, ResultPage)

	body, err := CheckoutPage.Exec(map[string]string{
		"Provider":       "sandbox",
		"ClientKey":      "test_key",
		"Environment":    "test",
		"Amount":         "10.00 EUR",
		"PaymentMethods": `{"paymentMethods":[{"type":"scheme","name":"Credit Card"}]}`,
	})
	c.Assert(err, qt.IsNil)
	// the payment methods JSON is escaped into an attribute
	c.Assert(string(body), qt.Contains, `data-payment-methods="{&#34;paymentMethods&#34;`)
	c.Assert(string(body), qt.Contains, `data-client-key="test_key"`)
	c.Assert(string(body), qt.Not(qt.Contains), "js.stripe.com")
}

func TestWrite(t *testing.T) {
	c := qt.New(t)
	c.Assert(Load(fstest.MapFS{
		"templates/result.html": {Data: []byte(`<h1>{{.Title}}</h1>`)},
		"templates/notes.txt":   {Data: []byte(`ignored`)},
	}), qt.IsNil)
	c.Assert(Available(), qt.DeepEquals, []PageFile{ResultPage})

	w := httptest.NewRecorder()
	ResultPage.Write(w, http.StatusOK, map[string]string{"Title": "<Paid>"})
	c.Assert(w.Code, qt.Equals, http.StatusOK)
	c.Assert(w.Header().Get("Content-Type"), qt.Equals, "text/html; charset=utf-8")
	c.Assert(w.Body.String(), qt.Equals, `<h1>&lt;Paid&gt;</h1>`)

	w = httptest.NewRecorder()
	CheckoutPage.Write(w, http.StatusOK, nil)
	c.Assert(w.Code, qt.Equals, http.StatusInternalServerError)
	c.Assert(w.Header().Get("Content-Type"), qt.Equals, "application/json")
	c.Assert(w.Body.String(), qt.Contains, `"code":50002`)

	_, err := PageFile("missing").Exec(nil)
	c.Assert(err, qt.ErrorMatches, `page template "missing" not found`)
}
