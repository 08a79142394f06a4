package regs

// Register offsets from the peripheral base address.
//
// The core global registers occupy the first 1 KiB, the device-mode
// registers start at 0x800, per-endpoint register blocks are 0x20 bytes
// apiece, and each FIFO has a 4 KiB access window starting at 0x1000.
const (
	GAHBCFG  = 0x008 // AHB configuration
	GUSBCFG  = 0x00C // USB configuration
	GRSTCTL  = 0x010 // Reset control
	GINTSTS  = 0x014 // Core interrupt status
	GINTMSK  = 0x018 // Core interrupt mask
	GRXSTSR  = 0x01C // Receive status debug read (peek)
	GRXSTSP  = 0x020 // Receive status read and pop
	GRXFSIZ  = 0x024 // Receive FIFO size
	DIEPTXF0 = 0x028 // Endpoint 0 transmit FIFO size

	DCFG       = 0x800 // Device configuration
	DCTL       = 0x804 // Device control
	DSTS       = 0x808 // Device status
	DIEPMSK    = 0x810 // Device IN endpoint common interrupt mask
	DOEPMSK    = 0x814 // Device OUT endpoint common interrupt mask
	DAINT      = 0x818 // Device all endpoints interrupt status
	DAINTMSK   = 0x81C // Device all endpoints interrupt mask
	DIEPEMPMSK = 0x834 // Device IN endpoint FIFO empty interrupt mask

	PCGCCTL = 0xE00 // Power and clock gating control

	inEndpointBase  = 0x900  // First IN endpoint register block
	outEndpointBase = 0xB00  // First OUT endpoint register block
	endpointStride  = 0x20   // Size of one endpoint register block
	fifoBase        = 0x1000 // First FIFO access window
	fifoStride      = 0x1000 // Size of one FIFO access window
)

// IN endpoint register offsets, relative to the endpoint block.
const (
	diepctlOff  = 0x00 // Control
	diepintOff  = 0x08 // Interrupt status
	dieptsizOff = 0x10 // Transfer size
	diepdmaOff  = 0x14 // DMA address
)

// DIEPCTL returns the offset of the IN endpoint control register.
func DIEPCTL(num int) uint32 {
	return inEndpointBase + uint32(num)*endpointStride + diepctlOff
}

// DIEPINT returns the offset of the IN endpoint interrupt register.
func DIEPINT(num int) uint32 {
	return inEndpointBase + uint32(num)*endpointStride + diepintOff
}

// DIEPTSIZ returns the offset of the IN endpoint transfer size register.
func DIEPTSIZ(num int) uint32 {
	return inEndpointBase + uint32(num)*endpointStride + dieptsizOff
}

// DIEPDMA returns the offset of the IN endpoint DMA address register.
func DIEPDMA(num int) uint32 {
	return inEndpointBase + uint32(num)*endpointStride + diepdmaOff
}

// DOEPCTL returns the offset of the OUT endpoint control register.
func DOEPCTL(num int) uint32 {
	return outEndpointBase + uint32(num)*endpointStride + diepctlOff
}

// DOEPINT returns the offset of the OUT endpoint interrupt register.
func DOEPINT(num int) uint32 {
	return outEndpointBase + uint32(num)*endpointStride + diepintOff
}

// DOEPTSIZ returns the offset of the OUT endpoint transfer size register.
func DOEPTSIZ(num int) uint32 {
	return outEndpointBase + uint32(num)*endpointStride + dieptsizOff
}

// DOEPDMA returns the offset of the OUT endpoint DMA address register.
func DOEPDMA(num int) uint32 {
	return outEndpointBase + uint32(num)*endpointStride + diepdmaOff
}

// DIEPTXF returns the offset of the transmit FIFO size register for FIFO
// num. FIFO 0 has its own register (DIEPTXF0); num must be >= 1.
func DIEPTXF(num int) uint32 {
	return 0x104 + 4*uint32(num-1)
}

// FIFO returns the offset of the FIFO access window for FIFO num.
// The receive FIFO is read through window 0; each transmit FIFO is
// written through the window matching its bank number.
func FIFO(num int) uint32 {
	return fifoBase + uint32(num)*fifoStride
}

// GAHBCFG bits.
const (
	GAHBCFG_GINT        = 1 << 0 // Global interrupt enable
	GAHBCFG_HBSTLEN_Pos = 1      // Burst length
	GAHBCFG_DMAEN       = 1 << 5 // DMA enable
	GAHBCFG_TXFELVL     = 1 << 7 // TxFIFO empty level (interrupt on empty)
)

// GUSBCFG bits.
const (
	GUSBCFG_PHYSEL   = 1 << 6         // Full-speed serial transceiver select
	GUSBCFG_SRPCAP   = 1 << 8         // SRP capable
	GUSBCFG_HNPCAP   = 1 << 9         // HNP capable
	GUSBCFG_TRDT_Pos = 10             // USB turnaround time
	GUSBCFG_TRDT_Msk = 0xF << 10      //
	GUSBCFG_FHMOD    = 1 << 29        // Force host mode
	GUSBCFG_FDMOD    = uint32(1) << 30 // Force device mode
)

// GRSTCTL bits.
const (
	GRSTCTL_CSRST      = 1 << 0         // Core soft reset
	GRSTCTL_RXFFLSH    = 1 << 4         // Receive FIFO flush
	GRSTCTL_TXFFLSH    = 1 << 5         // Transmit FIFO flush
	GRSTCTL_TXFNUM_Pos = 6              // Transmit FIFO number to flush
	GRSTCTL_TXFNUM_Msk = 0x1F << 6      //
	GRSTCTL_AHBIDL     = uint32(1) << 31 // AHB master idle
)

// FlushAll is the TXFNUM sentinel that flushes every transmit FIFO.
const FlushAll = 0x10

// GINTSTS / GINTMSK bits.
const (
	GINTSTS_CMOD    = 1 << 0         // Current mode (1 = host)
	GINTSTS_OTGINT  = 1 << 2         // OTG interrupt
	GINTSTS_RXFLVL  = 1 << 4         // Receive FIFO non-empty
	GINTSTS_USBSUSP = 1 << 11        // USB suspend
	GINTSTS_USBRST  = 1 << 12        // USB reset start
	GINTSTS_ENUMDNE = 1 << 13        // Enumeration (reset) done
	GINTSTS_IEPINT  = 1 << 18        // IN endpoint interrupt summary
	GINTSTS_OEPINT  = 1 << 19        // OUT endpoint interrupt summary
	GINTSTS_SRQINT  = uint32(1) << 30 // Session request
	GINTSTS_WKUINT  = uint32(1) << 31 // Resume / remote wakeup
)

// GRXSTSP / GRXSTSR fields.
const (
	GRXSTSP_EPNUM_Msk  = 0xF          // Endpoint number
	GRXSTSP_BCNT_Pos   = 4            // Byte count
	GRXSTSP_BCNT_Msk   = 0x7FF << 4   //
	GRXSTSP_PKTSTS_Pos = 17           // Packet status code
	GRXSTSP_PKTSTS_Msk = 0xF << 17    //
)

// Receive FIFO packet status codes.
const (
	PktStsGlobalOutNAK  = 0x01 // Global OUT NAK effective
	PktStsDataUpdate    = 0x02 // OUT data packet received
	PktStsTransferComp  = 0x03 // OUT transfer completed
	PktStsSetupComp     = 0x04 // SETUP transaction completed
	PktStsSetupUpdate   = 0x06 // SETUP data packet received
)

// GRXFSIZ fields.
const (
	GRXFSIZ_RXFD_Msk = 0xFFFF // Receive FIFO depth in words
)

// DIEPTXF0 / DIEPTXF fields.
const (
	TXF_FSA_Msk = 0xFFFF // FIFO start address (words)
	TXF_FD_Pos  = 16     // FIFO depth (words)
)

// DCFG bits.
const (
	DCFG_DSPD_Msk = 0x3       // Device speed
	DCFG_DAD_Pos  = 4         // Device address
	DCFG_DAD_Msk  = 0x7F << 4 //
)

// Device speed encodings for DCFG.DSPD.
const (
	DSPD_High = 0x0 // High speed (UTMI+/ULPI PHY)
	DSPD_Full = 0x3 // Full speed (internal PHY)
)

// DCTL bits.
const (
	DCTL_RWUSIG = 1 << 0  // Remote wakeup signaling
	DCTL_SDIS   = 1 << 1  // Soft disconnect
	DCTL_GINSTS = 1 << 2  // Global IN NAK status
	DCTL_GONSTS = 1 << 3  // Global OUT NAK status
	DCTL_SGINAK = 1 << 7  // Set global IN NAK
	DCTL_CGINAK = 1 << 8  // Clear global IN NAK
	DCTL_SGONAK = 1 << 9  // Set global OUT NAK
	DCTL_CGONAK = 1 << 10 // Clear global OUT NAK
)

// DIEPMSK / DOEPMSK bits.
const (
	DEPMSK_XFRCM = 1 << 0 // Transfer complete interrupt mask
)

// DAINT / DAINTMSK layout: IN endpoints in the low half, OUT endpoints
// in the high half, starting at this bit offset.
const DAINT_OUT_Pos = 16

// DIEPCTL / DOEPCTL bits (layouts match where both define a field).
const (
	DEPCTL_MPSIZ_Msk  = 0x7FF          // Maximum packet size
	DEPCTL_USBAEP     = 1 << 15        // Endpoint active
	DEPCTL_EPTYP_Pos  = 18             // Endpoint type
	DEPCTL_EPTYP_Msk  = 0x3 << 18      //
	DEPCTL_STALL      = 1 << 21        // Stall handshake
	DEPCTL_TXFNUM_Pos = 22             // Transmit FIFO number (IN only)
	DEPCTL_TXFNUM_Msk = 0xF << 22      //
	DEPCTL_CNAK       = 1 << 26        // Clear NAK
	DEPCTL_SNAK       = 1 << 27        // Set NAK
	DEPCTL_SD0PID     = uint32(1) << 28 // Set DATA0 PID
	DEPCTL_EPDIS      = uint32(1) << 30 // Endpoint disable
	DEPCTL_EPENA      = uint32(1) << 31 // Endpoint enable
)

// Endpoint type encodings for DEPCTL.EPTYP.
const (
	EPTypeControl   = 0x0
	EPTypeIso       = 0x1
	EPTypeBulk      = 0x2
	EPTypeInterrupt = 0x3
)

// Endpoint 0 maximum packet size encodings for DEPCTL.MPSIZ.
const (
	EP0Size64 = 0x0
	EP0Size32 = 0x1
	EP0Size16 = 0x2
	EP0Size8  = 0x3
)

// DIEPINT bits.
const (
	DIEPINT_XFRC = 1 << 0 // Transfer completed
	DIEPINT_TXFE = 1 << 7 // Transmit FIFO empty
)

// DOEPINT bits.
const (
	DOEPINT_XFRC = 1 << 0 // Transfer completed
	DOEPINT_STUP = 1 << 3 // SETUP phase done
)

// DIEPTSIZ / DOEPTSIZ fields.
const (
	DEPTSIZ_XFRSIZ_Msk   = 0x7FFFF       // Transfer size in bytes
	DEPTSIZ_PKTCNT_Pos   = 19            // Packet count
	DOEPTSIZ_STUPCNT_Pos = 29            // Back-to-back SETUP count (OUT EP0)
)

// PCGCCTL bits.
const (
	PCGCCTL_STOPCLK = 1 << 0 // Stop PHY clock
)
