package gateway

import "context"

// DoJSON sends req through r and decodes the reply into out (which may be nil).
func DoJSON(ctx context.Context, r Requester, req Request, out any) error {
	resp, err := r.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}
