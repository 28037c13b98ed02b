package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// Floods a node's /receive endpoint with PRIME envelopes from a synthetic
// originator, to measure dispatch throughput and exercise the dedup path
// (each envelope is sent twice).
func main() {
	addr := flag.String("addr", "http://localhost:5001", "node address")
	origin := flag.Int("origin", 9999, "synthetic originator port")
	n := flag.Int("n", 5000, "envelopes")
	conc := flag.Int("c", 32, "concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	wg := sync.WaitGroup{}
	start := time.Now()
	ch := make(chan int, *conc)

	for i := 0; i < *n; i++ {
		wg.Add(1)
		ch <- 1
		go func(i int) {
			defer wg.Done()
			data := int64(3 + rand.Intn(1000))
			env := map[string]any{
				"msg_type":       "PRIME",
				"msg_id":         i,
				"msg_originator": *origin,
				"msg_forwarder":  *origin,
				"ttl":            0,
				"data":           data,
			}
			body, _ := json.Marshal(env)
			for range 2 {
				resp, _ := client.Post(*addr+"/receive", "application/json", bytes.NewReader(body))
				if resp != nil {
					io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}
			<-ch
		}(i)
	}
	wg.Wait()
	dur := time.Since(start)
	fmt.Printf("Delivered %d envelopes in %s (%.2f msgs/s)\n", *n*2, dur, float64(*n*2)/dur.Seconds())
}
