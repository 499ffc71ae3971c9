package dynamicfetcher

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var resourceTypeByName = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// installHijack blocks the configured resource types (any of stylesheet,
// font, media and script) so rendering does not wait on downloads it doesn't
// need for extraction. Images are not among the blockable types.
// Returns nil if nothing is blocked. The caller must Stop() the router once
// the page content has been read.
func installHijack(page *rod.Page, blocked []string) *rod.HijackRouter {
	types := make(map[proto.NetworkResourceType]struct{}, len(blocked))
	for _, name := range blocked {
		if rt, ok := resourceTypeByName[name]; ok {
			types[rt] = struct{}{}
		}
	}
	if len(types) == 0 {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, block := types[ctx.Request.Type()]; block {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}
