package internal

import (
	"errors"
	"log/slog"
	"strings"
)

// maxForwards is the forward queue length treated as a loop.
const maxForwards = 10

// responseCycle dispatches endpoint and follows forwards until a view
// produces a response or fails. errorDocCode is non-zero when rendering an
// error doc.
func (a *App) responseCycle(c Context, endpoint string, args Args, errorDocCode int) (*Response, error) {
	rg := c.Registry().RG
	rg.ForwardQueue = []Forwarded{{Endpoint: endpoint, Args: args.Clone()}}

	for {
		resp, err := a.cycleOnce(c, errorDocCode)

		var fwd *forwardSignal
		if errors.As(err, &fwd) {
			a.logger.DebugContext(c, "forwarding", slog.String("endpoint", fwd.endpoint))
			rg.ForwardQueue = append(rg.ForwardQueue, Forwarded{Endpoint: fwd.endpoint, Args: fwd.args.Clone()})
			if len(rg.ForwardQueue) == maxForwards {
				names := make([]string, len(rg.ForwardQueue))
				for i, f := range rg.ForwardQueue {
					names[i] = f.Endpoint
				}
				return nil, NewProgrammingError("forward loop detected: %s", strings.Join(names, "->"))
			}
			continue
		}

		a.saveSession(c)
		return resp, err
	}
}

// cycleOnce runs one iteration: setup hooks, dispatch of the last queued
// endpoint, teardown hooks.
func (a *App) cycleOnce(c Context, errorDocCode int) (resp *Response, err error) {
	rg := c.Registry().RG
	rg.RespCtx = newResponseContext(errorDocCode)

	defer func() {
		if terr := runHooks(c, a.hooks.ResponseCycleTeardown); terr != nil {
			a.logger.ErrorContext(c, "response cycle teardown failed", slog.Any("error", terr))
		}
		if terr := runHooks(c, rg.hooks.ResponseCycleTeardown); terr != nil {
			a.logger.ErrorContext(c, "response cycle teardown failed", slog.Any("error", terr))
		}
	}()

	if err := runHooks(c, a.hooks.ResponseCycleSetup); err != nil {
		return nil, err
	}
	if err := runHooks(c, rg.hooks.ResponseCycleSetup); err != nil {
		return nil, err
	}

	current := rg.ForwardQueue[len(rg.ForwardQueue)-1]
	rg.Endpoint = current.Endpoint

	a.events.Send(c, EventResponseCycleStarted, EventData{
		"endpoint": current.Endpoint,
		"args":     current.Args,
	})

	resp, err = a.dispatchEndpoint(c, current.Endpoint, current.Args)
	if err != nil {
		return nil, err
	}

	a.events.Send(c, EventResponseCycleEnded, EventData{"response": resp})
	return resp, nil
}
