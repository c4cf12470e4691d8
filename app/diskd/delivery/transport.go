package delivery

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chanyoung/ecdisk/app/diskd/usecase/diskapi"
	"github.com/chanyoung/ecdisk/pkg/disk"
)

func makeHandler(h diskapi.Handlers, authToken string) http.Handler {
	r := mux.NewRouter()

	// Streaming request handlers.
	sr := r.PathPrefix(disk.RPCPathPrefix).Subrouter()
	sr.Use(authMiddleware(authToken))
	sr.Path("/walk_dir").Methods("GET").Handler(instrument("walk_dir", h.WalkDirHandler))
	sr.Path("/read_file_stream").Methods("GET").Handler(instrument("read_file_stream", h.ReadFileStreamHandler))
	sr.Path("/put_file_stream").Methods("PUT").Handler(instrument("put_file_stream", h.PutFileStreamHandler))

	r.Path("/metrics").Handler(promhttp.Handler())

	return r
}

// authMiddleware rejects streaming requests without the shared bearer
// token. An empty configured token disables the check.
func authMiddleware(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// httpTypeBytes returns type bytes which is used to multiplexing.
func httpTypeBytes() []byte {
	return []byte{
		0x44, // 'D' of DELETE
		0x47, // 'G' of GET
		0x50, // 'P' of POST, PUT
	}
}

// rpcTypeBytes returns rpc type bytes which is used to multiplexing.
func rpcTypeBytes() []byte {
	return []byte{
		byte(0x02), // rpcDisk
	}
}
