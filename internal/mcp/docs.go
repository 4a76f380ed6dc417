package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `waitline admits members to bounded queues and keeps their positions dense.

Core concepts:
- Member: an admitter (creates queues, serves members) or a joiner (joins queues).
- Queue: a waiting line with a fixed max_capacity of waiting members.
- Ticket: a member's place in a queue. Waiting positions are always 1..N with no gaps.

Default workflow:
1) register_member once per participant.
2) An admitter calls create_queue; joiners find it with list_queues.
3) join_queue returns the position. ALREADY_QUEUED and CAPACITY_EXCEEDED are expected outcomes, not faults.
4) serve_member removes a waiting member; everyone behind moves up by one.
5) get_position / get_roster / list_joined_queues are read-only and safe to repeat.

Transport notes:
- HTTP: identify the calling member with the X-Member-ID header.
- Stdio: pass _meta.member_id, or name the member in tool arguments.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "waitline://docs/queue-rules",
		Name:        "queue-rules",
		Title:       "Queue rules",
		Description: "How admission, serving and renumbering behave",
		Content: `# Queue rules

## Joining

A join is checked in this order:

1. The member must exist (UNKNOWN_MEMBER) and be a joiner (FORBIDDEN).
2. The queue must exist (QUEUE_NOT_FOUND).
3. The member must not already wait in the queue (ALREADY_QUEUED).
4. The queue must have a free slot (CAPACITY_EXCEEDED).

A successful join takes the position after the last waiting member.

## Serving

Serving marks one waiting member as served. The served ticket keeps the
position it held; every waiting member behind it moves up by one. Serving a
member who is not waiting returns NOT_IN_QUEUE and changes nothing.

A served member may join the same queue again and gets a fresh ticket.

## Reading

get_position reports the position together with the number of waiting
members from the same snapshot. get_roster lists waiting members by
position, followed by served members in the order they were served.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
