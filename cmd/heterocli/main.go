// Command heterocli is a small test client for a running heteroserved
// instance: it sends one image over HTTP or gRPC and prints the returned
// detections, one per line.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/canhld94/HeteroServing/internal/pb"
)

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:8080", "server address (host:port)")
		protocol = flag.String("protocol", "http", `transport to use: "http" or "grpc"`)
		imgPath  = flag.String("i", "", "path to the JPEG/PNG image to send")
		device   = flag.String("d", "", `device segment for the HTTP path, e.g. "cpu" (empty for the server default)`)
	)
	flag.Parse()

	if *imgPath == "" {
		fmt.Fprintln(os.Stderr, "missing -i <image>")
		flag.Usage()
		os.Exit(2)
	}
	data, err := os.ReadFile(*imgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read image: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch *protocol {
	case "http":
		err = runHTTP(ctx, *addr, *device, data)
	case "grpc":
		err = runGRPC(ctx, *addr, data)
	default:
		err = fmt.Errorf("unknown protocol %q", *protocol)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type httpBox struct {
	LabelID      int     `json:"label_id"`
	Label        string  `json:"label"`
	Confidences  float64 `json:"confidences"`
	DetectionBox [4]int  `json:"detection_box"`
}

type httpResponse struct {
	Status      string    `json:"status"`
	Predictions []httpBox `json:"predictions"`
}

func runHTTP(ctx context.Context, addr, device string, data []byte) error {
	url := "http://" + addr + "/inference"
	if device != "" {
		url += "/" + device
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, body)
	}

	var out httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	for _, b := range out.Predictions {
		fmt.Printf("%d\t%s\t%.3f\t[%d %d %d %d]\n",
			b.LabelID, b.Label, b.Confidences,
			b.DetectionBox[0], b.DetectionBox[1], b.DetectionBox[2], b.DetectionBox[3])
	}
	return nil
}

func runGRPC(ctx context.Context, addr string, data []byte) error {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(pb.Codec)),
	)
	if err != nil {
		return err
	}
	defer conn.Close()

	out := new(pb.DetectionOutput)
	req := &pb.EncodedImage{Data: data, Size: int32(len(data))}
	if err := conn.Invoke(ctx, "/"+pb.ServiceName+"/RunDetection", req, out); err != nil {
		return err
	}
	for _, b := range out.Bboxes {
		if b.Box != nil {
			fmt.Printf("%d\t%s\t%.3f\t[%d %d %d %d]\n",
				b.LabelID, b.Label, b.Prob, b.Box.Xmin, b.Box.Ymin, b.Box.Xmax, b.Box.Ymax)
		} else {
			fmt.Printf("%d\t%s\t%.3f\n", b.LabelID, b.Label, b.Prob)
		}
	}
	return nil
}
