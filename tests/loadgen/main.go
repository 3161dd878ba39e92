package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Fires concurrent create-order requests at a single product to observe the
// oversell protection: with stock N and M > N buyers, exactly N must get 201
// and the rest 409.

type address struct {
	Name   string `json:"name"`
	Street string `json:"street"`
	City   string `json:"city"`
	ZIP    string `json:"zip"`
}

type requestedItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items           []requestedItem `json:"items"`
	ShippingAddress address         `json:"shipping_address"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "service base url")
	productID := flag.String("product", "", "product id to fight over")
	buyers := flag.Int("buyers", 50, "number of concurrent buyers")
	flag.Parse()

	if *productID == "" {
		fmt.Println("usage: loadgen -product <id> [-buyers N] [-url http://...]")
		return
	}

	var created, rejected, failed atomic.Int64

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < *buyers; i++ {
		buyerID := fmt.Sprintf("load-buyer-%04d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()

			code, err := placeOrder(*baseURL, buyerID, *productID)
			switch {
			case err != nil:
				failed.Add(1)
				fmt.Println("request error:", err)
			case code == http.StatusCreated:
				created.Add(1)
			case code == http.StatusConflict:
				rejected.Add(1)
			default:
				failed.Add(1)
				fmt.Println("unexpected status:", code)
			}
		}()
	}
	wg.Wait()

	fmt.Printf("%d buyers in %s: %d created, %d rejected (out of stock), %d failed\n",
		*buyers, time.Since(start).Round(time.Millisecond),
		created.Load(), rejected.Load(), failed.Load())
}

func placeOrder(baseURL, buyerID, productID string) (int, error) {
	body, err := json.Marshal(createOrderRequest{
		Items: []requestedItem{{ProductID: productID, Quantity: 1}},
		ShippingAddress: address{
			Name:   buyerID,
			Street: fmt.Sprintf("%d Harbor Lane", rand.Intn(200)+1),
			City:   "Portsmouth",
			ZIP:    "00210",
		},
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Buyer-ID", buyerID)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
