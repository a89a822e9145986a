package client

import (
	"fmt"
	"net/url"
	"sort"
)

type RequestDecoratorFunc func([]string) []string

func Accession(accession string) RequestDecoratorFunc {
	return Filter("accession", accession)
}

func Filter(key, value string) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("%s=%s", url.QueryEscape(key), url.QueryEscape(value)))
	}
}

func Filters(filters map[string]string) RequestDecoratorFunc {
	return func(params []string) []string {
		keys := make([]string, 0, len(filters))
		for key := range filters {
			keys = append(keys, key)
		}
		// deterministic request URLs make response caching effective
		sort.Strings(keys)

		for _, key := range keys {
			params = Filter(key, filters[key])(params)
		}
		return params
	}
}

func PageSize(size int) RequestDecoratorFunc {
	return func(params []string) []string {
		return append(params, fmt.Sprintf("page_size=%d", size))
	}
}
