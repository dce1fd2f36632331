package transcription

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultEndpoint is the public streaming listen endpoint.
const DefaultEndpoint = "wss://api.deepgram.com/v1/listen"

// BuildSessionURL assembles the connection target from the session options
// and the budgeted keyword list. Parameter order is fixed so the same
// options always produce the same URL.
func BuildSessionURL(cfg Config, opts SessionOptions) string {
	opts = normalizeOptions(opts)

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	params := []string{
		"model=" + url.QueryEscape(opts.Model),
		"language=" + url.QueryEscape(opts.Language),
		"encoding=linear16",
		fmt.Sprintf("sample_rate=%d", opts.SampleRate),
		fmt.Sprintf("channels=%d", opts.Channels),
		fmt.Sprintf("interim_results=%t", opts.InterimResults),
	}

	if opts.UtteranceEndMs > 0 {
		params = append(params, fmt.Sprintf("utterance_end_ms=%d", opts.UtteranceEndMs))
	}
	if opts.EndpointingMs > 0 {
		params = append(params, fmt.Sprintf("endpointing=%d", opts.EndpointingMs))
	}

	params = append(params,
		fmt.Sprintf("smart_format=%t", opts.SmartFormat),
		fmt.Sprintf("punctuate=%t", opts.Punctuate),
	)
	if opts.Diarize {
		params = append(params, "diarize=true")
	}
	if opts.FillerWords {
		params = append(params, "filler_words=true")
	}
	if opts.Dictation {
		params = append(params, "dictation=true")
	}
	if opts.Numerals {
		params = append(params, "numerals=true")
	}
	if opts.OptOutDataUse {
		params = append(params, "mip_opt_out=true")
	}
	for _, category := range opts.RedactCategories {
		params = append(params, "redact="+url.QueryEscape(category))
	}

	boost := boostParamName(opts.Model)
	for _, entry := range opts.Keywords {
		params = append(params, boost+"="+url.QueryEscape(entry.Text))
	}

	return endpoint + "?" + strings.Join(params, "&")
}

// boostParamName picks the keyword parameter for the model generation:
// third-generation models take "keyterm", older ones take "keywords".
func boostParamName(model string) string {
	if strings.HasPrefix(model, "nova-3") {
		return "keyterm"
	}
	return "keywords"
}
