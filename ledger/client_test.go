package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode answers JSON-RPC calls with canned results per method. Methods
// with several queued results answer them in order.
type fakeNode struct {
	results map[string][]string
	calls   map[string]int
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		results: map[string][]string{},
		calls:   map[string]int{},
	}
}

func (n *fakeNode) queue(method, result string) {
	n.results[method] = append(n.results[method], result)
}

func (n *fakeNode) start(t *testing.T) *Client {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req rpcRequest
		require.NoError(t, c.BindJSON(&req))

		queued := n.results[req.Method]
		idx := n.calls[req.Method]
		n.calls[req.Method]++
		if idx >= len(queued) {
			c.JSON(http.StatusOK, gin.H{"jsonrpc": "2.0", "id": req.ID, "error": gin.H{
				"code": -32601, "message": "no result queued for " + req.Method,
			}})
			return
		}
		c.Data(http.StatusOK, "application/json",
			[]byte(`{"jsonrpc":"2.0","id":1,"result":`+queued[idx]+`}`))
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second)
}

func TestObjectOwnerAddress(t *testing.T) {
	node := newFakeNode()
	node.queue("sui_getObject", `{"data":{"owner":{"AddressOwner":"0xstaker"}}}`)
	client := node.start(t)

	owner, err := client.ObjectOwner(context.Background(), "0xnft")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "0xstaker", owner.AddressOwner)
	assert.Empty(t, owner.ObjectOwner)
}

func TestObjectOwnerContainer(t *testing.T) {
	node := newFakeNode()
	node.queue("sui_getObject", `{"data":{"owner":{"ObjectOwner":"0xkiosk"}}}`)
	client := node.start(t)

	owner, err := client.ObjectOwner(context.Background(), "0xnft")
	require.NoError(t, err)
	require.NotNil(t, owner)
	assert.Equal(t, "0xkiosk", owner.ObjectOwner)
}

func TestObjectOwnerMissing(t *testing.T) {
	node := newFakeNode()
	node.queue("sui_getObject", `{"data":{}}`)
	client := node.start(t)

	owner, err := client.ObjectOwner(context.Background(), "0xnft")
	require.NoError(t, err)
	assert.Nil(t, owner)
}

func TestObjectOwnerRPCError(t *testing.T) {
	node := newFakeNode()
	client := node.start(t)

	_, err := client.ObjectOwner(context.Background(), "0xnft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sui_getObject")
}

func TestOwnedKioskIDs(t *testing.T) {
	node := newFakeNode()
	node.queue("suix_getOwnedObjects", `{
		"data": [
			{"data":{"content":{"fields":{"for":"0xkioskA"}}}},
			{"data":{"content":{"fields":{"for":{"id":"0xkioskB"}}}}},
			{"data":{"content":{"fields":{"other":"0xignored"}}}}
		],
		"hasNextPage": false
	}`)
	client := node.start(t)

	ids, err := client.OwnedKioskIDs(context.Background(), "0xstaker")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xkioskA", "0xkioskB"}, ids)
}

func TestOwnedKioskIDsPaginates(t *testing.T) {
	node := newFakeNode()
	node.queue("suix_getOwnedObjects", `{
		"data": [{"data":{"content":{"fields":{"for":"0xkioskA"}}}}],
		"nextCursor": "cursor-1",
		"hasNextPage": true
	}`)
	node.queue("suix_getOwnedObjects", `{
		"data": [{"data":{"content":{"fields":{"for":"0xkioskB"}}}}],
		"hasNextPage": false
	}`)
	client := node.start(t)

	ids, err := client.OwnedKioskIDs(context.Background(), "0xstaker")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xkioskA", "0xkioskB"}, ids)
	assert.Equal(t, 2, node.calls["suix_getOwnedObjects"])
}

func TestIsItemListedInKiosk(t *testing.T) {
	node := newFakeNode()
	node.queue("suix_getDynamicFields", `{
		"data": [{"name":{"type":"0x2::kiosk::Listing"}}],
		"hasNextPage": false
	}`)
	node.queue("suix_getDynamicFieldObject", `{
		"data": {
			"type": "0x2::dynamic_field::Field<0x2::kiosk::Listing, u64>",
			"content": {"fields": {"item_id": {"id": "0xNFT"}}}
		}
	}`)
	client := node.start(t)

	listed, err := client.IsItemListedInKiosk(context.Background(), "0xkiosk", "0xnft")
	require.NoError(t, err)
	// Object id comparison is case-insensitive.
	assert.True(t, listed)
}

func TestIsItemListedInKioskOtherItem(t *testing.T) {
	node := newFakeNode()
	node.queue("suix_getDynamicFields", `{
		"data": [{"name":{"type":"0x2::kiosk::Listing"}}],
		"hasNextPage": false
	}`)
	node.queue("suix_getDynamicFieldObject", `{
		"data": {
			"type": "0x2::dynamic_field::Field<0x2::kiosk::Listing, u64>",
			"content": {"fields": {"item_id": "0xother"}}
		}
	}`)
	client := node.start(t)

	listed, err := client.IsItemListedInKiosk(context.Background(), "0xkiosk", "0xnft")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestIsItemListedIgnoresNonListingFields(t *testing.T) {
	node := newFakeNode()
	node.queue("suix_getDynamicFields", `{
		"data": [{"name":{"type":"item"}}],
		"hasNextPage": false
	}`)
	node.queue("suix_getDynamicFieldObject", `{
		"data": {
			"type": "0x2::dynamic_field::Field<0x2::kiosk::Item, 0xabc::nft::Nft>",
			"content": {"fields": {"item_id": "0xnft"}}
		}
	}`)
	client := node.start(t)

	listed, err := client.IsItemListedInKiosk(context.Background(), "0xkiosk", "0xnft")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestIsItemListedEmptyKiosk(t *testing.T) {
	node := newFakeNode()
	node.queue("suix_getDynamicFields", `{"data": [], "hasNextPage": false}`)
	client := node.start(t)

	listed, err := client.IsItemListedInKiosk(context.Background(), "0xkiosk", "0xnft")
	require.NoError(t, err)
	assert.False(t, listed)
}

func TestExtractObjectID(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"bare string", `"0xabc"`, "0xabc"},
		{"id field", `{"id":"0xabc"}`, "0xabc"},
		{"nested id", `{"id":{"id":"0xabc"}}`, "0xabc"},
		{"move struct", `{"fields":{"id":{"id":"0xabc"}}}`, "0xabc"},
		{"no id", `{"value":7}`, ""},
		{"number", `7`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractObjectID(json.RawMessage(tc.raw)))
		})
	}
}
