package orders

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"evenza/db"
	"evenza/models"
	"evenza/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GET /api/orders/:orderid/receipt
// Renders a PDF receipt with a QR code carrying the order id, so venue staff
// can verify a booking offline.
func PrintReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderid")
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var order models.Order
	err := db.OrdersCollection.FindOne(ctx, bson.M{"orderid": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if order.CustomerID != userID && order.VendorID != userID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	qrData := fmt.Sprintf("order=%s&vendor=%s&ts=%d", order.OrderID, order.VendorID, time.Now().Unix())
	qrCode, _ := qrcode.Encode(qrData, qrcode.Medium, 128)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 15, "Booking Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, fmt.Sprintf(
		"Order: %s\nCustomer: %s\nVendor: %s\nEvent date: %s\nLocation: %s\nIssued: %s",
		order.OrderID,
		order.CustomerName,
		order.VendorName,
		order.EventDate,
		order.EventLocation,
		time.Now().Format("02 Jan 2006 15:04"),
	), "", "L", false)
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 12)
	pdf.MultiCell(0, 8, fmt.Sprintf(
		"Total: %.2f\nPaid: %.2f\nRemaining: %.2f\nPayment status: %s",
		order.TotalAmount,
		order.PaidAmount,
		order.RemainingAmount,
		order.PaymentStatus,
	), "", "L", false)

	imgOpts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("qr", imgOpts, bytes.NewReader(qrCode))
	pdf.ImageOptions("qr", 150, 60, 40, 40, false, imgOpts, 0, "")

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 10)
	pdf.CellFormat(0, 10, "Present this receipt at the venue. The QR code identifies the booking.", "T", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		http.Error(w, "Failed to generate receipt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+orderID+".pdf")
	w.Write(buf.Bytes())
}
