package cbhttp

func SetHeader(key, value string) RequestOption {
	return func(r *Request) *Request {
		if r.Header == nil {
			r.Header = make(map[string][]string)
		}
		r.Header.Set(key, value)
		return r
	}
}
