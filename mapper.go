package datacore

// RequestMapper converts a domain entity into its wire request model.
type RequestMapper[In, Req any] interface {
	MapRequest(input In) (Req, error)
}

// ResponseMapper converts a wire response model into a domain entity.
type ResponseMapper[Resp, Out any] interface {
	MapResponse(input Resp) (Out, error)
}

// Mapper is the request/response pair implemented by one object per
// entity and wire model.
type Mapper[In, Req, Resp, Out any] interface {
	RequestMapper[In, Req]
	ResponseMapper[Resp, Out]
}

// MapperFuncs adapts two functions to a Mapper.
type MapperFuncs[In, Req, Resp, Out any] struct {
	Request  func(In) (Req, error)
	Response func(Resp) (Out, error)
}

func (m MapperFuncs[In, Req, Resp, Out]) MapRequest(input In) (Req, error) {
	return m.Request(input)
}

func (m MapperFuncs[In, Req, Resp, Out]) MapResponse(input Resp) (Out, error) {
	return m.Response(input)
}

// MapOptionalList applies transform to every element of list, keeping the
// results for which it reports true, in input order. A nil list yields an
// empty, non-nil slice.
func MapOptionalList[In, Out any](list []In, transform func(In) (Out, bool)) []Out {
	out := make([]Out, 0, len(list))
	for _, item := range list {
		if v, ok := transform(item); ok {
			out = append(out, v)
		}
	}
	return out
}
