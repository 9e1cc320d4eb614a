package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const kioskOwnerCapType = "0x2::kiosk::KioskOwnerCap"

// Client is a thin JSON-RPC client for the Sui fullnode endpoints the
// engine needs: object owner lookup, kiosk capability enumeration and kiosk
// listing scan. The node is untrusted for availability; every call takes a
// context and callers decide what a failure means.
type Client struct {
	http *resty.Client
}

func NewClient(rpcUrl string, timeout time.Duration) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(rpcUrl).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// Owner is the owner record of an on-ledger object. Exactly one of the
// fields is set for the object kinds this engine stakes.
type Owner struct {
	AddressOwner string `json:"AddressOwner"`
	ObjectOwner  string `json:"ObjectOwner"`
}

type rpcRequest struct {
	JsonRpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	body := rpcRequest{JsonRpc: "2.0", ID: 1, Method: method, Params: params}
	rpcResp := new(rpcResponse)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(rpcResp).
		Post("")
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("rpc %s: status %d", method, resp.StatusCode())
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("rpc %s: %s", method, rpcResp.Error.Message)
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("rpc %s: decode result: %w", method, err)
		}
	}
	return nil
}

// ObjectOwner fetches the current owner record of the object. A nil Owner
// means the node has no owner for the object.
func (c *Client) ObjectOwner(ctx context.Context, objectID string) (*Owner, error) {
	var result struct {
		Data struct {
			Owner *Owner `json:"owner"`
		} `json:"data"`
	}
	params := []interface{}{objectID, map[string]interface{}{"showOwner": true}}
	if err := c.call(ctx, "sui_getObject", params, &result); err != nil {
		return nil, err
	}
	return result.Data.Owner, nil
}

type ownedObjectsPage struct {
	Data []struct {
		Data struct {
			Content struct {
				Fields map[string]json.RawMessage `json:"fields"`
			} `json:"content"`
		} `json:"data"`
	} `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// OwnedKioskIDs enumerates the KioskOwnerCap objects held by the wallet and
// returns the kiosk ids they grant control over.
func (c *Client) OwnedKioskIDs(ctx context.Context, wallet string) ([]string, error) {
	var kioskIDs []string
	var cursor *string
	for {
		query := map[string]interface{}{
			"filter":  map[string]interface{}{"StructType": kioskOwnerCapType},
			"options": map[string]interface{}{"showType": true, "showContent": true},
		}
		params := []interface{}{wallet, query}
		if cursor != nil {
			params = append(params, *cursor)
		}
		page := new(ownedObjectsPage)
		if err := c.call(ctx, "suix_getOwnedObjects", params, page); err != nil {
			return nil, err
		}
		for _, item := range page.Data {
			forField, ok := item.Data.Content.Fields["for"]
			if !ok {
				continue
			}
			if id := extractObjectID(forField); id != "" {
				kioskIDs = append(kioskIDs, id)
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}
	return kioskIDs, nil
}

type dynamicFieldsPage struct {
	Data []struct {
		Name json.RawMessage `json:"name"`
	} `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type dynamicFieldObject struct {
	Data struct {
		Type    string `json:"type"`
		Content struct {
			Fields map[string]json.RawMessage `json:"fields"`
		} `json:"content"`
	} `json:"data"`
}

// IsItemListedInKiosk scans the kiosk's dynamic field children for a
// listing record referencing the object.
func (c *Client) IsItemListedInKiosk(ctx context.Context, kioskID, objectID string) (bool, error) {
	var cursor *string
	for {
		query := map[string]interface{}{"parentId": kioskID}
		if cursor != nil {
			query["cursor"] = *cursor
		}
		page := new(dynamicFieldsPage)
		if err := c.call(ctx, "suix_getDynamicFields", []interface{}{query}, page); err != nil {
			return false, err
		}
		for _, entry := range page.Data {
			field := new(dynamicFieldObject)
			params := []interface{}{map[string]interface{}{"parentId": kioskID, "name": entry.Name}}
			if err := c.call(ctx, "suix_getDynamicFieldObject", params, field); err != nil {
				// Keep scanning; one unreadable child does not decide the
				// listing question.
				continue
			}
			if !isListingType(field.Data.Type) {
				continue
			}
			if listingTargets(field.Data.Content.Fields, objectID) {
				return true, nil
			}
		}
		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}
	return false, nil
}

func isListingType(dtype string) bool {
	if dtype == "" {
		return false
	}
	return strings.Contains(dtype, "::kiosk::Listing") || strings.Contains(strings.ToLower(dtype), "listing")
}

func listingTargets(fields map[string]json.RawMessage, objectID string) bool {
	for _, key := range []string{"item_id", "itemId", "item"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if id := extractObjectID(raw); id != "" && strings.EqualFold(id, objectID) {
			return true
		}
	}
	return false
}

// extractObjectID digs an object id out of the shapes Sui uses for nested
// object references: a bare string, {"id": "0x.."}, {"id": {"id": "0x.."}}
// or {"fields": {"id": {"id": "0x.."}}}.
func extractObjectID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if inner, ok := obj["fields"]; ok {
		if id := extractObjectID(inner); id != "" {
			return id
		}
	}
	if inner, ok := obj["id"]; ok {
		return extractObjectID(inner)
	}
	return ""
}
