package transport

import (
	"context"
	"net"
	"strconv"

	"github.com/cristicbz/riakgo/rpc/common"
)

// resolveFunc is the resolution seam: production uses resolveEndpoints,
// tests substitute canned lists and failures.
type resolveFunc func(host string, port uint16, done func(endpoints []string, err error))

// resolveEndpoints performs a one-shot asynchronous name resolution and
// invokes done exactly once with the ordered address list. A failure maps
// to address_not_available.
func resolveEndpoints(host string, port uint16, done func(endpoints []string, err error)) {
	go func() {
		addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
		if err != nil {
			done(nil, common.WrapError(common.ErrCAddressNotAvailable,
				"hostname resolution failed for "+host, err))
			return
		}

		portStr := strconv.Itoa(int(port))
		endpoints := make([]string, 0, len(addrs))
		for _, addr := range addrs {
			endpoints = append(endpoints, net.JoinHostPort(addr.IP.String(), portStr))
		}
		if len(endpoints) == 0 {
			done(nil, common.NewError(common.ErrCAddressNotAvailable,
				"hostname resolved to no addresses: "+host))
			return
		}
		done(endpoints, nil)
	}()
}
