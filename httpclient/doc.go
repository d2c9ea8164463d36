// Package httpclient provides the HTTP client used to talk to transcription
// providers: authentication, TLS, optional HTTP/2, multipart uploads, and
// status classification into typed errors.
//
// The client executes exactly one attempt per call. Retry, circuit breaking
// and admission control are the resilience package's job; this package only
// classifies outcomes (timeout, connection, auth, rate limit, server,
// decode) so that layer can decide what to do with them.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    Name:    "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    Timeout: 30 * time.Second,
//	    Auth:    httpclient.BearerAuth(apiKey),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/audio/transcriptions",
//	    Body: &httpclient.MultipartBody{
//	        Fields: map[string]string{"model": "whisper-1"},
//	        Files: []httpclient.FileField{
//	            {FieldName: "file", FileName: "audio.wav", ContentType: "audio/wav", Data: wav},
//	        },
//	    },
//	})
//
// # Typed Requests
//
//	type transcript struct {
//	    Text string `json:"text"`
//	}
//	out, err := httpclient.Post[transcript](client, ctx, "/audio/transcriptions", body)
//
// The sse subpackage provides a Server-Sent Events reader for consuming
// event streams such as the control server's /v1/events feed.
package httpclient
