package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("XCam.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActionAdd enqueues a new action.
func (c *Client) ActionAdd(command, additions string) (*ActionAddResponse, error) {
	var resp ActionAddResponse
	req := ActionAddRequest{Command: command, Additions: additions}
	if err := c.client.Call("XCam.ActionAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActionList returns actions optionally filtered by statuses.
func (c *Client) ActionList(statuses []string) (*ActionListResponse, error) {
	var resp ActionListResponse
	req := ActionListRequest{Statuses: statuses}
	if err := c.client.Call("XCam.ActionList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActionDescribe returns details for a single action.
func (c *Client) ActionDescribe(id int64) (*ActionDescribeResponse, error) {
	var resp ActionDescribeResponse
	req := ActionDescribeRequest{ID: id}
	if err := c.client.Call("XCam.ActionDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActionRetry retries failed actions. An empty id list retries all of them.
func (c *Client) ActionRetry(ids []int64) (*ActionRetryResponse, error) {
	var resp ActionRetryResponse
	req := ActionRetryRequest{IDs: ids}
	if err := c.client.Call("XCam.ActionRetry", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActionClear removes actions in the given scope: "all", "done", or "failed".
func (c *Client) ActionClear(scope string) (*ActionClearResponse, error) {
	var resp ActionClearResponse
	req := ActionClearRequest{Scope: scope}
	if err := c.client.Call("XCam.ActionClear", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActionRemove deletes a single action by id.
func (c *Client) ActionRemove(id int64) (*ActionRemoveResponse, error) {
	var resp ActionRemoveResponse
	req := ActionRemoveRequest{ID: id}
	if err := c.client.Call("XCam.ActionRemove", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActionReset resets in-flight actions back to pending.
func (c *Client) ActionReset() (*ActionResetResponse, error) {
	var resp ActionResetResponse
	if err := c.client.Call("XCam.ActionReset", ActionResetRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CameraUpsert registers or updates a camera.
func (c *Client) CameraUpsert(record CameraRecord) (*CameraUpsertResponse, error) {
	var resp CameraUpsertResponse
	req := CameraUpsertRequest{Camera: record}
	if err := c.client.Call("XCam.CameraUpsert", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CameraImport registers a batch of cameras.
func (c *Client) CameraImport(records []CameraRecord) (*CameraImportResponse, error) {
	var resp CameraImportResponse
	req := CameraImportRequest{Cameras: records}
	if err := c.client.Call("XCam.CameraImport", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CameraList returns all registered cameras.
func (c *Client) CameraList() (*CameraListResponse, error) {
	var resp CameraListResponse
	if err := c.client.Call("XCam.CameraList", CameraListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CameraDescribe returns details for a single camera.
func (c *Client) CameraDescribe(id int64) (*CameraDescribeResponse, error) {
	var resp CameraDescribeResponse
	req := CameraDescribeRequest{ID: id}
	if err := c.client.Call("XCam.CameraDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CameraSetStatus activates or deactivates a camera.
func (c *Client) CameraSetStatus(id int64, status string) (*CameraSetStatusResponse, error) {
	var resp CameraSetStatusResponse
	req := CameraSetStatusRequest{ID: id, Status: status}
	if err := c.client.Call("XCam.CameraSetStatus", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CameraRemove deletes a camera by id.
func (c *Client) CameraRemove(id int64) (*CameraRemoveResponse, error) {
	var resp CameraRemoveResponse
	req := CameraRemoveRequest{ID: id}
	if err := c.client.Call("XCam.CameraRemove", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan triggers a discovery sweep on the daemon side.
func (c *Client) Scan() (*ScanResponse, error) {
	var resp ScanResponse
	if err := c.client.Call("XCam.Scan", ScanRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActionHealth returns aggregate queue diagnostics.
func (c *Client) ActionHealth() (*ActionHealthResponse, error) {
	var resp ActionHealthResponse
	if err := c.client.Call("XCam.ActionHealth", ActionHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("XCam.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
