package param

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("json")
	d.IgnoreUnknownKeys(true)
	return d
}()

// Binding decodes the query string of GET requests and the json body of the others
func Binding(r *http.Request, v interface{}) error {
	if r.Method == http.MethodGet || r.Body == nil || r.ContentLength == 0 {
		return decoder.Decode(v, r.URL.Query())
	}

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}
