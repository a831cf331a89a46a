// Package bdispatch provides an embeddable HTTP endpoint dispatcher with typed request and response contracts.
//
// # Overview
//
// Routes are declared on a [Registry] at startup: a URL pattern, the schema its wildcards bind to and one
// operation per verb. Operations declare how their body is decoded, the schema of their query parameters
// and are invoked with the decoded [Input]. They return a [*Future] that may complete on any goroutine.
//
//	type ItemURL struct {
//	    ID int `json:"id"`
//	}
//
//	reg := bdispatch.NewRegistry()
//	reg.Register("/items/{id}", bdispatch.SchemaOf[ItemURL]()).
//	    Get(nil, bdispatch.Typed(func(ctx context.Context, _ *struct{}, url *ItemURL, _ *struct{}) (bdispatch.Result, error) {
//	        item, err := db.GetItem(ctx, url.ID)
//	        if err != nil {
//	            return nil, bdispatch.NewError(bdispatch.CodeNotFound, err)
//	        }
//	        return bdispatch.Record(item), nil
//	    }))
//
//	http.ListenAndServe(":8080", reg.Build())
//
// # Dispatch
//
// [Registry.Build] freezes the routes into a [Dispatcher]. Routes are indexed by their number of path
// segments and tried in registration order, the first route whose literal segments all match wins. So
// registration order is part of the routing contract: register "/items/new" before "/items/{id}".
//
// [Dispatcher.Dispatch] reports whether a route handled the request. [Dispatcher.ServeHTTP] falls back to
// a not found handler for requests it did not handle.
//
// # Request Pipeline
//
// Every request goes through the same phases, in order: the body is decoded, the operation is invoked,
// its result is encoded and the response is committed exactly once. Files created for the request are
// removed after the commit, whatever the outcome.
//
//   - A verb without an operation on the route is answered with a 403 without decoding the body
//   - OPTIONS is always answered with a 200 and the headers of the route
//   - GET requests never have their body decoded
//
// Bodies are decoded according to their [BodyKind]: as bytes, streamed to a temporary file or decoded as
// a typed record by the [Codec].
//
// # Results
//
// An operation completes with a nil result (204), a [*BytesResult], a [*FileResult] or a [*RecordResult].
// Record results whose struct carries fields annotated `bdispatch:"status"` and `bdispatch:"data"` are
// unpacked: the status is read from the one and only the other is encoded. Record responses are gzip
// compressed for clients that accept it.
//
// # Error Handling
//
// Failures are mapped onto a status:
//
//   - [*Error] (created with [NewError]): its code, the message as the reason of the response
//   - [*Error] with content ([NewErrorWithContent]): its code, the content encoded as the body
//   - Other errors: logged and converted to 500 Internal Server Error, malformed url, query or header values
//     included unless [WithBadRequestOnMalformedParams] makes them a 400
//   - A status outside 200-999 supplied by an operation: logged and converted to 500
//
// net/http does not allow a custom reason phrase so the reason is sent in the [HeaderStatusReason] header.
//
// # Middleware
//
// Middleware wraps operations to add cross-cutting concerns, see [Registry.Use] and [Wrap].
package bdispatch
