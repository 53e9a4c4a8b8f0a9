// Reader is a testing facility to exercise a http reporter.

package reporter

import (
	"bytes"
	"io"
	"net/http"
)

type HttpReader struct {
	serverIP   string // target ip
	serverPort string // target port
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
	}
}

func (hr *HttpReader) base() string {
	return "http://" + hr.serverIP + ":" + hr.serverPort
}

func (hr *HttpReader) GetHealth() (int, string, error) {
	return hr.get(hr.base() + ROUTE_HEALTH)
}

func (hr *HttpReader) GetTransaction(txId string) (int, string, error) {
	return hr.get(hr.base() + "/transactions/" + txId)
}

func (hr *HttpReader) GetUserTransactions(address string, query string) (int, string, error) {
	url := hr.base() + "/transactions/user/" + address
	if query != "" {
		url += "?" + query
	}
	return hr.get(url)
}

func (hr *HttpReader) PostMonitor(body []byte) (int, string, error) {
	resp, err := http.Post(hr.base()+ROUTE_MONITOR, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	return drain(resp)
}

func (hr *HttpReader) get(url string) (int, string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, "", err
	}
	return drain(resp)
}

func drain(resp *http.Response) (int, string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(body), nil
}
