// Package gateway wires a client-facing net.Server to the classify-then-
// dispatch pipeline: it is the one place insert, dispatch, cluster and
// net all meet.
package gateway

import (
	"context"

	"github.com/teotikalki/siridb-server/cluster"
	"github.com/teotikalki/siridb-server/dispatch"
	"github.com/teotikalki/siridb-server/insert"
	"github.com/teotikalki/siridb-server/logging"
	netpkg "github.com/teotikalki/siridb-server/net"
)

var logger = logging.New("Gateway")

// Gateway implements net.Handler for insert requests.
type Gateway struct {
	Classifier *insert.Classifier
	Dispatcher *dispatch.Dispatcher
	Table      *cluster.Table
	LocalPool  uint16
}

// Handle classifies an inbound package's body and, if classification
// succeeds, hands the job to the dispatcher. The dispatcher writes the
// job's single reply itself via conn, so Handle returns nil here except
// for a non-insert request type or a classification failure, both of
// which are answered synchronously.
func (g *Gateway) Handle(conn *netpkg.Conn, pkg *netpkg.Package) *netpkg.Package {
	if pkg.Header.Type != netpkg.TypeReqInsert {
		return netpkg.NewPackage(pkg.Header.RequestID, netpkg.TypeResInsertError, insert.PackError("unsupported request type"))
	}

	result, err := g.Classifier.Classify(pkg.Body)
	if err != nil {
		logger.Printf("rejected request %d: %s", pkg.Header.RequestID, err)
		return netpkg.NewPackage(pkg.Header.RequestID, netpkg.TypeResInsertError, insert.PackError(err.Error()))
	}

	job := dispatch.NewJob(pkg.Header.RequestID, conn, result.PointCount, result.SubBatches, g.LocalPool)
	g.Dispatcher.Dispatch(context.Background(), job)
	return nil
}
